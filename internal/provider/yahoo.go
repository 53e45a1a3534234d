package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"twstock-advisor/internal/domain"
)

const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	yahooChartPath      = "/v8/finance/chart/{symbol}"
)

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider reads the Yahoo Finance chart API. Listed stocks use the .TW
// suffix and OTC stocks .TWO.
type YahooProvider struct {
	client  *resty.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	loc     *time.Location
}

func NewYahooProvider(cfg HTTPConfig, tracer trace.Tracer) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	return &YahooProvider{
		client:  newClient(cfg),
		limiter: newLimiter(cfg.RequestsPerMinute),
		tracer:  tracer,
		loc:     locationOrDefault(cfg.Location),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) Supports(meta domain.StockMetadata) bool {
	return meta.Market == domain.MarketListed || meta.Market == domain.MarketOTC
}

func YahooSymbol(meta domain.StockMetadata) string {
	if meta.Market == domain.MarketOTC {
		return meta.Code + ".TWO"
	}
	return meta.Code + ".TW"
}

func (p *YahooProvider) FetchDaily(ctx context.Context, meta domain.StockMetadata, from, to time.Time) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo-provider.fetch-daily")
	defer span.End()
	symbol := YahooSymbol(meta)
	span.SetAttributes(attribute.String("symbol", symbol))

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	from, to = dayIn(from, p.loc), dayIn(to, p.loc)
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":        strconv.FormatInt(from.Unix(), 10),
			"period2":        strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10),
			"interval":       "1d",
			"includePrePost": "false",
			"events":         "div,split",
		}).
		Get(yahooChartPath)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo chart %s: status %d", symbol, resp.StatusCode())
	}

	var body yahooChartResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: decode: %w", symbol, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		points = append(points, domain.PricePoint{
			Date:   dayIn(time.Unix(ts, 0), p.loc),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		})
	}
	return withinRange(points, from, to), nil
}
