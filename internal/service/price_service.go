package service

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"twstock-advisor/internal/cache"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/metrics"
	"twstock-advisor/internal/provider"
)

// PriceArchive stores raw daily prices so a later outage of every provider
// can still be served from history.
type PriceArchive interface {
	UpsertPrices(ctx context.Context, stockID, source string, points []domain.PricePoint) error
	GetPricesInRange(ctx context.Context, stockID string, from, to time.Time) ([]domain.PricePoint, error)
}

const defaultLoadTimeout = 30 * time.Second

// PriceService resolves a price series through the cache, then each provider
// in order, then the archive.
type PriceService struct {
	tracer      trace.Tracer
	providers   []provider.Provider
	cache       cache.SeriesCache
	cacheTTL    time.Duration
	archive     PriceArchive
	metrics     *metrics.Metrics
	loc         *time.Location
	now         func() time.Time
	group       singleflight.Group
	loadTimeout time.Duration
}

func NewPriceService(tracer trace.Tracer, providers []provider.Provider) *PriceService {
	return &PriceService{
		tracer:      tracer,
		providers:   providers,
		loc:         provider.LoadLocation(""),
		now:         time.Now,
		loadTimeout: defaultLoadTimeout,
	}
}

// WithLoadTimeout bounds a shared provider load, which runs detached from the
// callers waiting on it.
func (s *PriceService) WithLoadTimeout(d time.Duration) *PriceService {
	if d > 0 {
		s.loadTimeout = d
	}
	return s
}

func (s *PriceService) WithCache(c cache.SeriesCache, ttl time.Duration) *PriceService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

func (s *PriceService) WithArchive(a PriceArchive) *PriceService {
	s.archive = a
	return s
}

func (s *PriceService) WithMetrics(m *metrics.Metrics) *PriceService {
	s.metrics = m
	return s
}

func (s *PriceService) WithLocation(loc *time.Location) *PriceService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *PriceService) WithClock(now func() time.Time) *PriceService {
	if now != nil {
		s.now = now
	}
	return s
}

// Window returns the inclusive calendar range covering the last months months.
func (s *PriceService) Window(months int) (time.Time, time.Time) {
	now := s.now().In(s.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return to.AddDate(0, -months, 0), to
}

func (s *PriceService) GetSeries(ctx context.Context, meta domain.StockMetadata, months int) (domain.PriceSeries, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.get-series")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", meta.Code), attribute.Int("months", months))

	from, to := s.Window(months)
	key := cache.SeriesKey(meta.Code, months, to.Format(domain.DateLayout))

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("price-service: cache get %s: %v", key, err)
		}
		s.metrics.ObserveCache(ok)
		if ok {
			return cached, nil
		}
	}

	// Every caller of key shares one load, so a caller that gives up must not
	// cancel it for the others.
	ch := s.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return s.load(loadCtx, meta, months, from, to)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return domain.PriceSeries{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		return domain.PriceSeries{}, res.Err
	}
	series := res.Val.(domain.PriceSeries)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, series, s.cacheTTL); err != nil {
			log.Printf("price-service: cache set %s: %v", key, err)
		}
	}
	return series, nil
}

func (s *PriceService) load(ctx context.Context, meta domain.StockMetadata, months int, from, to time.Time) (domain.PriceSeries, error) {
	var lastErr error
	for _, p := range s.providers {
		if !p.Supports(meta) {
			continue
		}
		start := time.Now()
		points, err := p.FetchDaily(ctx, meta, from, to)
		s.metrics.ObserveFetch(p.Name(), time.Since(start), err)
		if err != nil {
			log.Printf("price-service: %s fetch %s: %v", p.Name(), meta.Code, err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(points) == 0 {
			continue
		}

		if s.archive != nil {
			if err := s.archive.UpsertPrices(ctx, meta.Code, p.Name(), points); err != nil {
				log.Printf("price-service: archive %s: %v", meta.Code, err)
			}
		}
		return domain.PriceSeries{StockID: meta.Code, Months: months, Source: p.Name(), Points: points}, nil
	}

	if s.archive != nil {
		points, err := s.archive.GetPricesInRange(ctx, meta.Code, from, to)
		if err != nil {
			log.Printf("price-service: archive read %s: %v", meta.Code, err)
		} else if len(points) > 0 {
			return domain.PriceSeries{StockID: meta.Code, Months: months, Source: "archive", Points: points}, nil
		}
	}

	if lastErr != nil {
		return domain.PriceSeries{}, domain.DataUnavailablef("no price data for %s over the last %d months: %v", meta.Code, months, lastErr)
	}
	return domain.PriceSeries{}, domain.DataUnavailablef("no price data for %s over the last %d months", meta.Code, months)
}

