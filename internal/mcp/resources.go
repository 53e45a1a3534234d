package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"twstock-advisor/internal/domain"
)

const (
	industriesURI     = "twstock://industries"
	analysisConfigURI = "twstock://analysis/config"
)

func registerResources(server *mcp.Server, svc Analyzer) {
	server.AddResource(&mcp.Resource{
		URI:         industriesURI,
		Name:        "industries",
		Description: "Industry names in the stock catalog with the number of stocks in each",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, industriesOutput{Industries: svc.Industries()})
	})

	server.AddResource(&mcp.Resource{
		URI:         analysisConfigURI,
		Name:        "analysis-config",
		Description: "Indicator periods, signal thresholds, scoring weights and request limits in effect",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, analysisConfigOutput{
			Engine: svc.EngineConfig(),
			Limits: svc.Limits(),
		})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "twstock://stocks/{code}",
		Name:        "stock-metadata",
		Description: "Catalog entry for one stock code",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "twstock" || parsed.Host != "stocks" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		code := strings.Trim(strings.TrimSpace(parsed.Path), "/")
		meta, err := svc.GetStockMetadata(ctx, code)
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidParameter) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, meta)
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
