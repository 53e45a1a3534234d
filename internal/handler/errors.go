package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/domain"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
}

func statusFor(kind string) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidParameter:
		return http.StatusBadRequest
	case domain.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case domain.KindDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, span trace.Span, err error) {
	kind := domain.ErrorKind(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)
	c.JSON(statusFor(kind), ErrorResponse{Error: err.Error(), ErrorKind: kind})
}
