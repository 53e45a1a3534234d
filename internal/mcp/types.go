package mcp

import (
	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/catalog"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/service"
)

// toolResponse is the envelope every tool returns. Failures that belong to
// the caller's request are reported here rather than as protocol errors.
type toolResponse[T any] struct {
	Success   bool   `json:"success"`
	Data      *T     `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func okResponse[T any](data T) toolResponse[T] {
	return toolResponse[T]{Success: true, Data: &data}
}

func errResponse[T any](err error) toolResponse[T] {
	return toolResponse[T]{Success: false, Error: err.Error(), ErrorKind: domain.ErrorKind(err)}
}

type stockInput struct {
	StockID string `json:"stock_id" jsonschema:"Taiwan stock code, e.g. 2330"`
}

type stockMonthsInput struct {
	StockID string `json:"stock_id" jsonschema:"Taiwan stock code, e.g. 2330"`
	Months  *int   `json:"months,omitempty" jsonschema:"months of daily history to use, 1-24, default 3"`
}

type stockListInput struct {
	StockIDs []string `json:"stock_ids" jsonschema:"Taiwan stock codes, at most 50; duplicates are analyzed twice"`
	Months   *int     `json:"months,omitempty" jsonschema:"months of daily history to use, 1-24, default 3"`
}

type keywordInput struct {
	Keyword string `json:"keyword" jsonschema:"substring of a stock code or name, case-insensitive"`
}

type industryInput struct {
	Industry string `json:"industry" jsonschema:"exact industry name, e.g. 半導體業"`
}

type stockListOutput struct {
	Count  int                    `json:"count"`
	Stocks []domain.StockMetadata `json:"stocks"`
}

func newStockListOutput(stocks []domain.StockMetadata) stockListOutput {
	if stocks == nil {
		stocks = []domain.StockMetadata{}
	}
	return stockListOutput{Count: len(stocks), Stocks: stocks}
}

type chartOutput struct {
	StockID  string `json:"stock_id"`
	Months   int    `json:"months"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
}

type industriesOutput struct {
	Industries []catalog.Industry `json:"industries"`
}

type analysisConfigOutput struct {
	Engine analysis.Config `json:"engine"`
	Limits service.Limits  `json:"limits"`
}
