package tui

import (
	"context"

	"twstock-advisor/internal/domain"
)

// Analyzer provides analysis data to the TUI.
type Analyzer interface {
	AnalyzeStock(ctx context.Context, stockID string, months int) (domain.Recommendation, error)
	AnalyzeMultipleStocks(ctx context.Context, stockIDs []string, months int) (domain.BatchResult, error)
	GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error)
	SearchStocksByKeyword(ctx context.Context, keyword string) ([]domain.StockMetadata, error)
}

// Services bundles all dependencies injected into the TUI.
type Services struct {
	Analyzer  Analyzer
	Watchlist []string
	Months    int
	UserID    int64
	Username  string
}

func (s Services) months() int {
	if s.Months <= 0 {
		return 3
	}
	return s.Months
}
