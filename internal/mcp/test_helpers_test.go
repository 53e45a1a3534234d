package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace/noop"

	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
	"twstock-advisor/internal/metrics"
	"twstock-advisor/internal/service"
)

type stubSeries struct {
	closes     map[string][]float64
	lastMonths int
}

func (s *stubSeries) GetSeries(_ context.Context, meta domain.StockMetadata, months int) (domain.PriceSeries, error) {
	s.lastMonths = months
	closes, ok := s.closes[meta.Code]
	if !ok {
		return domain.PriceSeries{}, domain.DataUnavailablef("no price data for %s", meta.Code)
	}
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: base.AddDate(0, 0, i), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return domain.PriceSeries{StockID: meta.Code, Months: months, Points: points}, nil
}

type stubChart struct{}

func (stubChart) Render(meta domain.StockMetadata, series domain.PriceSeries, _ indicator.Params) (domain.ChartImage, error) {
	return domain.ChartImage{StockID: meta.Code, MimeType: "image/png", Width: 4, Height: 3, Bytes: []byte{0x89, 'P', 'N', 'G'}}, nil
}

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		step := 2.0
		if i > 30 {
			step = 0.2
		}
		if i > 50 {
			step = 0.2 + 0.4*float64(i-50)
		}
		if i > 0 {
			price += step
		}
		out[i] = price
	}
	return out
}

func testServer(t *testing.T) (*sdkmcp.Server, *stubSeries, *metrics.Metrics) {
	t.Helper()

	cat, err := catalog.New([]domain.StockMetadata{
		{Code: "2330", Name: "台積電", Industry: "半導體業", Market: domain.MarketListed},
		{Code: "2303", Name: "聯電", Industry: "半導體業", Market: domain.MarketListed},
		{Code: "2317", Name: "鴻海", Industry: "其他電子業", Market: domain.MarketListed},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	engine, err := analysis.NewEngine(analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	series := &stubSeries{closes: map[string][]float64{
		"2330": risingCloses(58),
		"2303": risingCloses(10),
	}}
	tracer := noop.NewTracerProvider().Tracer("test")
	m := metrics.New(nil)
	svc := service.NewAnalysisService(tracer, cat, series, engine, service.DefaultLimits()).
		WithChartRenderer(stubChart{}).
		WithMetrics(m)

	srv := NewServer(tracer, svc, ServerConfig{RequestTimeout: time.Second, Metrics: m})
	return srv, series, m
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

// decodeEnvelope reads the JSON text block a typed tool emits.
func decodeEnvelope[T any](res *sdkmcp.CallToolResult) (toolResponse[T], error) {
	var out toolResponse[T]
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			err := json.Unmarshal([]byte(text.Text), &out)
			return out, err
		}
	}
	return out, fmt.Errorf("no text content in result")
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
