package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"twstock-advisor/internal/domain"
)

const (
	DefaultTWSEBaseURL = "https://www.twse.com.tw"
	twseStockDayPath   = "/rwd/zh/afterTrading/STOCK_DAY"
	twseStatOK         = "OK"
)

type twseStockDayResponse struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Title  string     `json:"title"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// TWSEProvider reads the exchange's monthly STOCK_DAY report, one request per
// calendar month. It only covers listed (上市) stocks.
type TWSEProvider struct {
	client  *resty.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	loc     *time.Location
}

func NewTWSEProvider(cfg HTTPConfig, tracer trace.Tracer) *TWSEProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTWSEBaseURL
	}
	return &TWSEProvider{
		client:  newClient(cfg),
		limiter: newLimiter(cfg.RequestsPerMinute),
		tracer:  tracer,
		loc:     locationOrDefault(cfg.Location),
	}
}

func (p *TWSEProvider) Name() string { return "twse" }

func (p *TWSEProvider) Supports(meta domain.StockMetadata) bool {
	return meta.Market == domain.MarketListed
}

func (p *TWSEProvider) FetchDaily(ctx context.Context, meta domain.StockMetadata, from, to time.Time) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "twse-provider.fetch-daily")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", meta.Code))

	from, to = dayIn(from, p.loc), dayIn(to, p.loc)
	var points []domain.PricePoint
	for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, p.loc); !month.After(to); month = month.AddDate(0, 1, 0) {
		monthly, err := p.fetchMonth(ctx, meta.Code, month)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		points = append(points, monthly...)
	}
	return withinRange(points, from, to), nil
}

func (p *TWSEProvider) fetchMonth(ctx context.Context, code string, month time.Time) ([]domain.PricePoint, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"response": "json",
			"date":     month.Format("20060102"),
			"stockNo":  code,
		}).
		Get(twseStockDayPath)
	if err != nil {
		return nil, fmt.Errorf("twse stock day %s %s: %w", code, month.Format("2006-01"), err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("twse stock day %s %s: status %d", code, month.Format("2006-01"), resp.StatusCode())
	}

	var body twseStockDayResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("twse stock day %s %s: decode: %w", code, month.Format("2006-01"), err)
	}
	if body.Stat != twseStatOK {
		// the exchange answers "no matching data" with a non-OK stat
		return nil, nil
	}
	return parseTWSERows(body.Data, p.loc)
}

// parseTWSERows reads rows of 日期, 成交股數, 成交金額, 開盤價, 最高價, 最低價,
// 收盤價, ... Rows without a trade ("--") are skipped.
func parseTWSERows(rows [][]string, loc *time.Location) ([]domain.PricePoint, error) {
	out := make([]domain.PricePoint, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("twse row has %d columns, want at least 7", len(row))
		}
		date, err := parseROCDate(row[0], loc)
		if err != nil {
			return nil, err
		}
		prices := make([]float64, 4)
		traded := true
		for i, raw := range row[3:7] {
			v, ok, err := parseTWSEPrice(raw)
			if err != nil {
				return nil, fmt.Errorf("twse price %q on %s: %w", raw, row[0], err)
			}
			if !ok {
				traded = false
				break
			}
			prices[i] = v
		}
		if !traded {
			continue
		}
		volume, err := parseTWSEInt(row[1])
		if err != nil {
			return nil, fmt.Errorf("twse volume %q: %w", row[1], err)
		}
		out = append(out, domain.PricePoint{
			Date:   date,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: volume,
		})
	}
	return out, nil
}

// parseROCDate converts a Minguo calendar date such as 113/01/02.
func parseROCDate(raw string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", raw)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ROC date %q: %w", raw, err)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", raw)
	}
	return time.Date(nums[0]+1911, time.Month(nums[1]), nums[2], 0, 0, 0, 0, loc), nil
}

func parseTWSEInt(raw string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""), 10, 64)
}

func parseTWSEPrice(raw string) (float64, bool, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || strings.HasPrefix(cleaned, "--") {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
