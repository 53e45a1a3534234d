package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"twstock-advisor/internal/domain"
)

// StockListResponse wraps search and industry results.
type StockListResponse struct {
	Count  int                    `json:"count"`
	Stocks []domain.StockMetadata `json:"stocks"`
}

func newStockListResponse(stocks []domain.StockMetadata) StockListResponse {
	if stocks == nil {
		stocks = []domain.StockMetadata{}
	}
	return StockListResponse{Count: len(stocks), Stocks: stocks}
}

// SearchStocks godoc
// @Summary      Search stocks
// @Description  Case-insensitive substring match on stock code or name, ordered by code
// @Tags         stocks
// @Produce      json
// @Param        keyword  query  string  true  "Keyword, e.g. 台積 or 23"
// @Success      200  {object}  StockListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/v1/stocks/search [get]
func (h *Handler) SearchStocks(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-stocks")
	defer span.End()

	stocks, err := h.svc.SearchStocksByKeyword(ctx, c.Query("keyword"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, newStockListResponse(stocks))
}

// FilterByIndustry godoc
// @Summary      List stocks in an industry
// @Tags         stocks
// @Produce      json
// @Param        industry  path  string  true  "Exact industry name, e.g. 半導體業"
// @Success      200  {object}  StockListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /api/v1/stocks/industry/{industry} [get]
func (h *Handler) FilterByIndustry(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.filter-by-industry")
	defer span.End()

	stocks, err := h.svc.FilterStocksByIndustry(ctx, c.Param("industry"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, newStockListResponse(stocks))
}

// GetStock godoc
// @Summary      Get stock metadata
// @Tags         stocks
// @Produce      json
// @Param        code  path  string  true  "Stock code (e.g., 2330)"
// @Success      200  {object}  domain.StockMetadata
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/stocks/{code} [get]
func (h *Handler) GetStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stock")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", c.Param("code")))

	meta, err := h.svc.GetStockMetadata(ctx, c.Param("code"))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// GetPrices godoc
// @Summary      Get daily prices
// @Tags         stocks
// @Produce      json
// @Param        code    path   string  true   "Stock code (e.g., 2330)"
// @Param        months  query  int     false  "History length in months (1-24)"  default(3)
// @Success      200  {object}  domain.PriceSeries
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/stocks/{code}/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", c.Param("code")))

	months, err := h.months(c)
	if err != nil {
		writeError(c, span, err)
		return
	}
	series, err := h.svc.GetPriceSeries(ctx, c.Param("code"), months)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// AnalyzeStock godoc
// @Summary      Analyze a stock
// @Description  Trend, buy/sell/hold action with confidence, levels, indicators and rationale
// @Tags         analysis
// @Produce      json
// @Param        code    path   string  true   "Stock code (e.g., 2330)"
// @Param        months  query  int     false  "History length in months (1-24)"  default(3)
// @Success      200  {object}  domain.Recommendation
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/stocks/{code}/analysis [get]
func (h *Handler) AnalyzeStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-stock")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", c.Param("code")))

	months, err := h.months(c)
	if err != nil {
		writeError(c, span, err)
		return
	}
	rec, err := h.svc.AnalyzeStock(ctx, c.Param("code"), months)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetChart godoc
// @Summary      Get price chart
// @Description  PNG with candles, moving averages, Bollinger bands, volume, RSI and MACD
// @Tags         stocks
// @Produce      png
// @Param        code    path   string  true   "Stock code (e.g., 2330)"
// @Param        months  query  int     false  "History length in months (1-24)"  default(3)
// @Success      200  {file}  binary
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /api/v1/stocks/{code}/chart [get]
func (h *Handler) GetChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	months, err := h.months(c)
	if err != nil {
		writeError(c, span, err)
		return
	}
	img, err := h.svc.RenderChart(ctx, c.Param("code"), months)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Bytes)
}

// months reads the optional months query parameter. Range checks happen in
// the service.
func (h *Handler) months(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("months"))
	if raw == "" {
		return h.svc.MonthsOrDefault(nil), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidParameterf("months must be an integer, got %q", raw)
	}
	return h.svc.MonthsOrDefault(&n), nil
}
