package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/indicator"
	"twstock-advisor/internal/metrics"
)

type SeriesSource interface {
	GetSeries(ctx context.Context, meta domain.StockMetadata, months int) (domain.PriceSeries, error)
}

type ChartRenderer interface {
	Render(meta domain.StockMetadata, series domain.PriceSeries, params indicator.Params) (domain.ChartImage, error)
}

// Limits bounds the request parameters accepted by the analysis operations.
type Limits struct {
	DefaultMonths    int `json:"default_months"`
	MaxMonths        int `json:"max_months"`
	MaxBatch         int `json:"max_batch"`
	BatchConcurrency int `json:"batch_concurrency"`
}

func DefaultLimits() Limits {
	return Limits{DefaultMonths: 3, MaxMonths: 24, MaxBatch: 50, BatchConcurrency: 5}
}

// AnalysisService validates requests and runs the recommendation engine over
// catalog metadata and fetched price series.
type AnalysisService struct {
	tracer  trace.Tracer
	catalog *catalog.Catalog
	prices  SeriesSource
	engine  *analysis.Engine
	chart   ChartRenderer
	metrics *metrics.Metrics
	limits  Limits
}

func NewAnalysisService(
	tracer trace.Tracer,
	cat *catalog.Catalog,
	prices SeriesSource,
	engine *analysis.Engine,
	limits Limits,
) *AnalysisService {
	defaults := DefaultLimits()
	if limits.DefaultMonths <= 0 {
		limits.DefaultMonths = defaults.DefaultMonths
	}
	if limits.MaxMonths <= 0 {
		limits.MaxMonths = defaults.MaxMonths
	}
	if limits.MaxBatch <= 0 {
		limits.MaxBatch = defaults.MaxBatch
	}
	if limits.BatchConcurrency <= 0 {
		limits.BatchConcurrency = defaults.BatchConcurrency
	}
	return &AnalysisService{
		tracer:  tracer,
		catalog: cat,
		prices:  prices,
		engine:  engine,
		limits:  limits,
	}
}

func (s *AnalysisService) WithChartRenderer(r ChartRenderer) *AnalysisService {
	s.chart = r
	return s
}

func (s *AnalysisService) WithMetrics(m *metrics.Metrics) *AnalysisService {
	s.metrics = m
	return s
}

func (s *AnalysisService) Limits() Limits {
	return s.limits
}

func (s *AnalysisService) EngineConfig() analysis.Config {
	return s.engine.Config()
}

func (s *AnalysisService) Industries() []catalog.Industry {
	return s.catalog.Industries()
}

// MonthsOrDefault resolves an optional months argument. Explicit values are
// passed through untouched so validation can reject them.
func (s *AnalysisService) MonthsOrDefault(months *int) int {
	if months == nil {
		return s.limits.DefaultMonths
	}
	return *months
}

func (s *AnalysisService) GetStockMetadata(ctx context.Context, stockID string) (domain.StockMetadata, error) {
	_, span := s.tracer.Start(ctx, "analysis-service.get-stock-metadata")
	defer span.End()

	meta, err := s.lookup(stockID)
	if err != nil {
		s.metrics.ObserveError("get_stock_metadata", domain.ErrorKind(err))
		return domain.StockMetadata{}, err
	}
	return meta, nil
}

func (s *AnalysisService) GetPriceSeries(ctx context.Context, stockID string, months int) (domain.PriceSeries, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.get-price-series")
	defer span.End()

	series, err := s.priceSeries(ctx, stockID, months)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveError("get_price_series", domain.ErrorKind(err))
		return domain.PriceSeries{}, err
	}
	return series, nil
}

func (s *AnalysisService) AnalyzeStock(ctx context.Context, stockID string, months int) (domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-stock")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", stockID))

	if err := s.validateMonths(months); err != nil {
		s.metrics.ObserveError("analyze_stock", domain.ErrorKind(err))
		return domain.Recommendation{}, err
	}
	rec, err := s.analyzeOne(ctx, stockID, months)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveError("analyze_stock", domain.ErrorKind(err))
		return domain.Recommendation{}, err
	}
	return rec, nil
}

// AnalyzeMultipleStocks only fails as a whole on invalid arguments; every
// per-stock failure is reported inside the batch.
func (s *AnalysisService) AnalyzeMultipleStocks(ctx context.Context, stockIDs []string, months int) (domain.BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-multiple-stocks")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(stockIDs)))

	if err := s.validateBatch(stockIDs, months); err != nil {
		s.metrics.ObserveError("analyze_multiple_stocks", domain.ErrorKind(err))
		return domain.BatchResult{}, err
	}
	s.metrics.ObserveBatch(len(stockIDs))

	result := analysis.RunBatch(ctx, stockIDs, s.limits.BatchConcurrency, func(ctx context.Context, id string) (domain.Recommendation, error) {
		rec, err := s.analyzeOne(ctx, id, months)
		if err != nil {
			s.metrics.ObserveError("analyze_multiple_stocks", domain.ErrorKind(err))
		}
		return rec, err
	})
	return result, nil
}

func (s *AnalysisService) GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.get-recommendation-summary")
	defer span.End()

	batch, err := s.AnalyzeMultipleStocks(ctx, stockIDs, months)
	if err != nil {
		return domain.RecommendationSummary{}, err
	}
	return analysis.Summarize(batch), nil
}

func (s *AnalysisService) SearchStocksByKeyword(ctx context.Context, keyword string) ([]domain.StockMetadata, error) {
	_, span := s.tracer.Start(ctx, "analysis-service.search-stocks-by-keyword")
	defer span.End()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		err := domain.InvalidParameterf("keyword must not be empty")
		s.metrics.ObserveError("search_stocks_by_keyword", domain.ErrorKind(err))
		return nil, err
	}
	return s.catalog.Search(keyword), nil
}

func (s *AnalysisService) FilterStocksByIndustry(ctx context.Context, industry string) ([]domain.StockMetadata, error) {
	_, span := s.tracer.Start(ctx, "analysis-service.filter-stocks-by-industry")
	defer span.End()

	industry = strings.TrimSpace(industry)
	if industry == "" {
		err := domain.InvalidParameterf("industry must not be empty")
		s.metrics.ObserveError("filter_stocks_by_industry", domain.ErrorKind(err))
		return nil, err
	}
	return s.catalog.FilterByIndustry(industry), nil
}

func (s *AnalysisService) RenderChart(ctx context.Context, stockID string, months int) (domain.ChartImage, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.render-chart")
	defer span.End()

	if s.chart == nil {
		return domain.ChartImage{}, fmt.Errorf("chart rendering is not configured")
	}
	series, err := s.priceSeries(ctx, stockID, months)
	if err != nil {
		s.metrics.ObserveError("render_stock_chart", domain.ErrorKind(err))
		return domain.ChartImage{}, err
	}
	meta, _ := s.catalog.Lookup(series.StockID)
	img, err := s.chart.Render(meta, series, s.engine.Config().Indicators)
	if err != nil {
		s.metrics.ObserveError("render_stock_chart", domain.ErrorKind(err))
		return domain.ChartImage{}, fmt.Errorf("render chart for %s: %w", series.StockID, err)
	}
	return img, nil
}

func (s *AnalysisService) analyzeOne(ctx context.Context, stockID string, months int) (domain.Recommendation, error) {
	meta, err := s.lookup(stockID)
	if err != nil {
		return domain.Recommendation{}, err
	}
	series, err := s.prices.GetSeries(ctx, meta, months)
	if err != nil {
		return domain.Recommendation{}, err
	}
	rec, err := s.engine.Analyze(meta, series)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("analyze %s: %w", meta.Code, err)
	}
	s.metrics.ObserveAnalysis(string(rec.Action))
	return rec, nil
}

func (s *AnalysisService) priceSeries(ctx context.Context, stockID string, months int) (domain.PriceSeries, error) {
	if err := s.validateMonths(months); err != nil {
		return domain.PriceSeries{}, err
	}
	meta, err := s.lookup(stockID)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	return s.prices.GetSeries(ctx, meta, months)
}

func (s *AnalysisService) lookup(stockID string) (domain.StockMetadata, error) {
	code := strings.TrimSpace(stockID)
	if code == "" {
		return domain.StockMetadata{}, domain.InvalidParameterf("stock_id must not be empty")
	}
	meta, ok := s.catalog.Lookup(code)
	if !ok {
		return domain.StockMetadata{}, domain.NotFoundf("stock %s is not in the catalog", code)
	}
	return meta, nil
}

func (s *AnalysisService) validateMonths(months int) error {
	if months < 1 || months > s.limits.MaxMonths {
		return domain.InvalidParameterf("months must be between 1 and %d, got %d", s.limits.MaxMonths, months)
	}
	return nil
}

func (s *AnalysisService) validateBatch(stockIDs []string, months int) error {
	if len(stockIDs) == 0 {
		return domain.InvalidParameterf("stock_ids must not be empty")
	}
	if len(stockIDs) > s.limits.MaxBatch {
		return domain.InvalidParameterf("stock_ids accepts at most %d codes, got %d", s.limits.MaxBatch, len(stockIDs))
	}
	return s.validateMonths(months)
}
