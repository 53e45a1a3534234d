// Package bootstrap assembles the analysis service shared by the server, MCP
// and SSH entrypoints.
package bootstrap

import (
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/cache"
	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/chart"
	"twstock-advisor/internal/config"
	"twstock-advisor/internal/metrics"
	"twstock-advisor/internal/provider"
	"twstock-advisor/internal/repository"
	"twstock-advisor/internal/service"
)

const memoryCacheCleanup = 10 * time.Minute

// Deps are the process-level resources. Pool and Redis may be nil.
type Deps struct {
	Tracer  trace.Tracer
	Pool    repository.PgxPool
	Redis   *redis.Client
	Metrics *metrics.Metrics
}

// Providers builds the configured price providers in fallback order.
func Providers(cfg *config.Config, tracer trace.Tracer, loc *time.Location) []provider.Provider {
	timeout := time.Duration(cfg.ProviderTimeoutSecs) * time.Second
	out := make([]provider.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "twse":
			out = append(out, provider.NewTWSEProvider(provider.HTTPConfig{
				BaseURL:           cfg.TWSEBaseURL,
				Timeout:           timeout,
				RequestsPerMinute: cfg.TWSERequestsPerMin,
				RetryCount:        cfg.ProviderRetryCount,
				Location:          loc,
			}, tracer))
		case "yahoo":
			out = append(out, provider.NewYahooProvider(provider.HTTPConfig{
				BaseURL:           cfg.YahooBaseURL,
				Timeout:           timeout,
				RequestsPerMinute: cfg.YahooRequestsPerMin,
				RetryCount:        cfg.ProviderRetryCount,
				Location:          loc,
			}, tracer))
		default:
			log.Printf("bootstrap: skipping unknown provider %q", name)
		}
	}
	return out
}

// NewPriceService wires the providers with the Redis or in-process series
// cache and, when a database pool is present, the price archive.
func NewPriceService(cfg *config.Config, deps Deps) *service.PriceService {
	loc := provider.LoadLocation(cfg.Timezone)
	ttl := time.Duration(cfg.CacheTTLSecs) * time.Second

	var seriesCache cache.SeriesCache
	if deps.Redis != nil {
		seriesCache = cache.NewRedisSeriesCache(deps.Redis)
	} else {
		seriesCache = cache.NewMemorySeriesCache(ttl, memoryCacheCleanup)
	}

	prices := service.NewPriceService(deps.Tracer, Providers(cfg, deps.Tracer, loc)).
		WithCache(seriesCache, ttl).
		WithMetrics(deps.Metrics).
		WithLocation(loc).
		WithLoadTimeout(time.Duration(cfg.PriceLoadTimeoutSec) * time.Second)
	if deps.Pool != nil {
		prices.WithArchive(repository.NewPriceRepository(deps.Pool, deps.Tracer))
	}
	return prices
}

// NewAnalysisService loads the catalog, validates the engine configuration
// and returns a service with chart rendering enabled.
func NewAnalysisService(cfg *config.Config, deps Deps) (*service.AnalysisService, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	engine, err := analysis.NewEngine(cfg.AnalysisConfig())
	if err != nil {
		return nil, fmt.Errorf("build analysis engine: %w", err)
	}

	svc := service.NewAnalysisService(deps.Tracer, cat, NewPriceService(cfg, deps), engine, service.Limits{
		DefaultMonths:    cfg.DefaultMonths,
		MaxMonths:        cfg.MaxMonths,
		MaxBatch:         cfg.MaxBatch,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	svc.WithChartRenderer(chart.NewRenderer()).WithMetrics(deps.Metrics)
	log.Printf("bootstrap: catalog has %d stocks, providers %v", cat.Len(), cfg.Providers)
	return svc, nil
}
