package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"twstock-advisor/internal/domain"
)

func registerTools(server *mcp.Server, svc Analyzer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stock_metadata",
		Description: "Look up the name, industry and market of a Taiwan stock code",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockInput) (*mcp.CallToolResult, toolResponse[domain.StockMetadata], error) {
		meta, err := svc.GetStockMetadata(ctx, in.StockID)
		if err != nil {
			return nil, errResponse[domain.StockMetadata](err), nil
		}
		return nil, okResponse(meta), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_price_series",
		Description: "Get daily OHLCV prices for a stock over the last N months",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockMonthsInput) (*mcp.CallToolResult, toolResponse[domain.PriceSeries], error) {
		series, err := svc.GetPriceSeries(ctx, in.StockID, svc.MonthsOrDefault(in.Months))
		if err != nil {
			return nil, errResponse[domain.PriceSeries](err), nil
		}
		return nil, okResponse(series), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_stock",
		Description: "Analyze one stock: trend, buy/sell/hold action, confidence 0-100, " +
			"support/resistance, indicators, signals and rationale",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockMonthsInput) (*mcp.CallToolResult, toolResponse[domain.Recommendation], error) {
		rec, err := svc.AnalyzeStock(ctx, in.StockID, svc.MonthsOrDefault(in.Months))
		if err != nil {
			return nil, errResponse[domain.Recommendation](err), nil
		}
		return nil, okResponse(rec), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_multiple_stocks",
		Description: "Analyze several stocks in parallel; per-stock failures are listed under errors",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockListInput) (*mcp.CallToolResult, toolResponse[domain.BatchResult], error) {
		batch, err := svc.AnalyzeMultipleStocks(ctx, in.StockIDs, svc.MonthsOrDefault(in.Months))
		if err != nil {
			return nil, errResponse[domain.BatchResult](err), nil
		}
		return nil, okResponse(batch), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_stocks_by_keyword",
		Description: "Find stocks whose code or name contains the keyword",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in keywordInput) (*mcp.CallToolResult, toolResponse[stockListOutput], error) {
		stocks, err := svc.SearchStocksByKeyword(ctx, in.Keyword)
		if err != nil {
			return nil, errResponse[stockListOutput](err), nil
		}
		return nil, okResponse(newStockListOutput(stocks)), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_stocks_by_industry",
		Description: "List stocks in an industry; see twstock://industries for names",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in industryInput) (*mcp.CallToolResult, toolResponse[stockListOutput], error) {
		stocks, err := svc.FilterStocksByIndustry(ctx, in.Industry)
		if err != nil {
			return nil, errResponse[stockListOutput](err), nil
		}
		return nil, okResponse(newStockListOutput(stocks)), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recommendation_summary",
		Description: "Analyze stocks and group them into buy, sell and hold lists ranked by confidence",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockListInput) (*mcp.CallToolResult, toolResponse[domain.RecommendationSummary], error) {
		summary, err := svc.GetRecommendationSummary(ctx, in.StockIDs, svc.MonthsOrDefault(in.Months))
		if err != nil {
			return nil, errResponse[domain.RecommendationSummary](err), nil
		}
		return nil, okResponse(summary), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_stock_chart",
		Description: "Render a PNG chart of price, moving averages, Bollinger bands, RSI and MACD",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in stockMonthsInput) (*mcp.CallToolResult, toolResponse[chartOutput], error) {
		months := svc.MonthsOrDefault(in.Months)
		img, err := svc.RenderChart(ctx, in.StockID, months)
		if err != nil {
			return nil, errResponse[chartOutput](err), nil
		}

		out := okResponse(chartOutput{
			StockID:  img.StockID,
			Months:   months,
			MimeType: img.MimeType,
			Width:    img.Width,
			Height:   img.Height,
			Bytes:    len(img.Bytes),
		})
		body, err := json.Marshal(out)
		if err != nil {
			return nil, toolResponse[chartOutput]{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.ImageContent{Data: img.Bytes, MIMEType: img.MimeType},
				&mcp.TextContent{Text: string(body)},
			},
		}, out, nil
	})
}
