package mcp

import (
	"context"

	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/service"
)

// Analyzer is the analysis surface exposed as tools and resources.
// *service.AnalysisService satisfies it.
type Analyzer interface {
	GetStockMetadata(ctx context.Context, stockID string) (domain.StockMetadata, error)
	GetPriceSeries(ctx context.Context, stockID string, months int) (domain.PriceSeries, error)
	AnalyzeStock(ctx context.Context, stockID string, months int) (domain.Recommendation, error)
	AnalyzeMultipleStocks(ctx context.Context, stockIDs []string, months int) (domain.BatchResult, error)
	SearchStocksByKeyword(ctx context.Context, keyword string) ([]domain.StockMetadata, error)
	FilterStocksByIndustry(ctx context.Context, industry string) ([]domain.StockMetadata, error)
	GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error)
	RenderChart(ctx context.Context, stockID string, months int) (domain.ChartImage, error)

	MonthsOrDefault(months *int) int
	Limits() service.Limits
	EngineConfig() analysis.Config
	Industries() []catalog.Industry
}
