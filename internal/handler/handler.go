package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/metrics"
)

// Service is the analysis surface served over REST.
type Service interface {
	GetStockMetadata(ctx context.Context, stockID string) (domain.StockMetadata, error)
	GetPriceSeries(ctx context.Context, stockID string, months int) (domain.PriceSeries, error)
	AnalyzeStock(ctx context.Context, stockID string, months int) (domain.Recommendation, error)
	AnalyzeMultipleStocks(ctx context.Context, stockIDs []string, months int) (domain.BatchResult, error)
	SearchStocksByKeyword(ctx context.Context, keyword string) ([]domain.StockMetadata, error)
	FilterStocksByIndustry(ctx context.Context, industry string) ([]domain.StockMetadata, error)
	GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error)
	RenderChart(ctx context.Context, stockID string, months int) (domain.ChartImage, error)
	MonthsOrDefault(months *int) int
}

type Handler struct {
	tracer  trace.Tracer
	svc     Service
	metrics *metrics.Metrics
}

func New(tracer trace.Tracer, svc Service, m *metrics.Metrics) *Handler {
	return &Handler{
		tracer:  tracer,
		svc:     svc,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/stocks/search", h.SearchStocks)
	v1.GET("/stocks/industry/:industry", h.FilterByIndustry)
	v1.GET("/stocks/:code", h.GetStock)
	v1.GET("/stocks/:code/prices", h.GetPrices)
	v1.GET("/stocks/:code/analysis", h.AnalyzeStock)
	v1.GET("/stocks/:code/chart", h.GetChart)
	v1.POST("/analysis/batch", h.AnalyzeBatch)
	v1.POST("/analysis/summary", h.Summary)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
