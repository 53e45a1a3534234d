// Package provider fetches daily price history for Taiwan stocks from
// public market data sources.
package provider

import (
	"context"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"twstock-advisor/internal/domain"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Provider returns daily points between from and to inclusive, oldest first.
// An empty slice with a nil error means the source has no data for the range.
type Provider interface {
	Name() string
	Supports(meta domain.StockMetadata) bool
	FetchDaily(ctx context.Context, meta domain.StockMetadata, from, to time.Time) ([]domain.PricePoint, error)
}

type HTTPConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	RetryCount        int
	Location          *time.Location
}

// LoadLocation falls back to a fixed UTC+8 zone when the name cannot be resolved.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Taipei"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

func newClient(cfg HTTPConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func locationOrDefault(loc *time.Location) *time.Location {
	if loc == nil {
		return LoadLocation("")
	}
	return loc
}

func dayIn(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func withinRange(points []domain.PricePoint, from, to time.Time) []domain.PricePoint {
	out := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
