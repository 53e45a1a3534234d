package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"twstock-advisor/internal/domain"
)

// BatchRequest is the body of the batch and summary endpoints.
type BatchRequest struct {
	StockIDs []string `json:"stock_ids" example:"2330,2317"`
	Months   *int     `json:"months,omitempty" example:"3"`
}

// AnalyzeBatch godoc
// @Summary      Analyze several stocks
// @Description  Per-stock failures are listed under errors and never fail the request
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body  BatchRequest  true  "Stock ids and months"
// @Success      200  {object}  domain.BatchResult
// @Failure      400  {object}  ErrorResponse
// @Router       /api/v1/analysis/batch [post]
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-batch")
	defer span.End()

	req, ok := h.bindBatch(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("batch.size", len(req.StockIDs)))

	result, err := h.svc.AnalyzeMultipleStocks(ctx, req.StockIDs, h.svc.MonthsOrDefault(req.Months))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Summary godoc
// @Summary      Summarize recommendations
// @Description  Groups results into buy, sell and hold, each ordered by descending confidence
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body  BatchRequest  true  "Stock ids and months"
// @Success      200  {object}  domain.RecommendationSummary
// @Failure      400  {object}  ErrorResponse
// @Router       /api/v1/analysis/summary [post]
func (h *Handler) Summary(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.summary")
	defer span.End()

	req, ok := h.bindBatch(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("batch.size", len(req.StockIDs)))

	summary, err := h.svc.GetRecommendationSummary(ctx, req.StockIDs, h.svc.MonthsOrDefault(req.Months))
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) bindBatch(c *gin.Context) (BatchRequest, bool) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "request body must be JSON with a stock_ids array: " + err.Error(),
			ErrorKind: domain.KindInvalidParameter,
		})
		return req, false
	}
	return req, true
}
