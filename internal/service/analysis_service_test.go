package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"twstock-advisor/internal/analysis"
	"twstock-advisor/internal/domain"
	"twstock-advisor/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestAnalysisService(t *testing.T, closes map[string][]float64) (*AnalysisService, *stubSeries) {
	t.Helper()
	engine, err := analysis.NewEngine(analysis.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	src := &stubSeries{closes: closes}
	return NewAnalysisService(testTracer(), testCatalog(), src, engine, Limits{MaxBatch: 4}), src
}

func TestAnalysisServiceLimitsDefaults(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)
	limits := svc.Limits()
	if limits.DefaultMonths != 3 || limits.MaxMonths != 24 || limits.MaxBatch != 4 || limits.BatchConcurrency != 5 {
		t.Fatalf("unexpected limits %+v", limits)
	}
}

func TestMonthsOrDefault(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)
	if got := svc.MonthsOrDefault(nil); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}
	zero := 0
	if got := svc.MonthsOrDefault(&zero); got != 0 {
		t.Fatalf("expected explicit 0 to pass through, got %d", got)
	}
}

func TestGetStockMetadata(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)
	ctx := context.Background()

	meta, err := svc.GetStockMetadata(ctx, " 2330 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Name != "台積電" || meta.Market != domain.MarketListed {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	if _, err := svc.GetStockMetadata(ctx, "9999"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetStockMetadata(ctx, "  "); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestGetPriceSeriesValidatesMonths(t *testing.T) {
	svc, src := newTestAnalysisService(t, map[string][]float64{"2330": {1, 2, 3}})
	ctx := context.Background()

	for _, months := range []int{0, -1, 25} {
		if _, err := svc.GetPriceSeries(ctx, "2330", months); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Fatalf("months %d: expected invalid parameter, got %v", months, err)
		}
	}
	if len(src.calls) != 0 {
		t.Fatalf("expected no fetch for invalid months, got %v", src.calls)
	}

	series, err := svc.GetPriceSeries(ctx, "2330", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 3 || series.Months != 24 {
		t.Fatalf("unexpected series %+v", series)
	}
}

func TestAnalyzeStockRecommendsBuyOnAcceleratingRise(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{"2330": acceleratingRise()})
	m := metrics.New(nil)
	svc.WithMetrics(m)

	rec, err := svc.AnalyzeStock(context.Background(), "2330", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Action != domain.ActionBuy || rec.Trend != domain.TrendStrongUp {
		t.Fatalf("expected strong_up buy, got %s %s", rec.Trend, rec.Action)
	}
	if rec.Name != "台積電" || rec.Industry != "半導體業" {
		t.Fatalf("expected catalog metadata on recommendation, got %+v", rec)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("buy")); got != 1 {
		t.Fatalf("expected 1 buy analysis metric, got %v", got)
	}
}

func TestAnalyzeStockInsufficientDataNamesStock(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{"2330": acceleratingRise()[:21]})

	_, err := svc.AnalyzeStock(context.Background(), "2330", 1)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
	var insufficient *domain.InsufficientDataError
	if !errors.As(err, &insufficient) || insufficient.Indicator != domain.IndicatorMACD {
		t.Fatalf("expected macd to be reported, got %v", err)
	}
	if !strings.Contains(err.Error(), "2330") {
		t.Fatalf("expected stock id in message, got %q", err.Error())
	}
}

func TestAnalyzeStockPropagatesDataUnavailable(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{})
	_, err := svc.AnalyzeStock(context.Background(), "2330", 3)
	if domain.ErrorKind(err) != domain.KindDataUnavailable {
		t.Fatalf("expected data_unavailable, got %v", err)
	}
}

func TestAnalyzeMultipleStocksValidatesArguments(t *testing.T) {
	svc, src := newTestAnalysisService(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		ids    []string
		months int
	}{
		{name: "empty", ids: nil, months: 3},
		{name: "too many", ids: []string{"2330", "2330", "2330", "2330", "2330"}, months: 3},
		{name: "bad months", ids: []string{"2330"}, months: 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AnalyzeMultipleStocks(ctx, tc.ids, tc.months); !errors.Is(err, domain.ErrInvalidParameter) {
				t.Fatalf("expected invalid parameter, got %v", err)
			}
		})
	}
	if len(src.calls) != 0 {
		t.Fatalf("expected no fetches, got %v", src.calls)
	}
}

func TestAnalyzeMultipleStocksIsolatesFailures(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{
		"2330": acceleratingRise(),
		"2317": mirrored(acceleratingRise()),
	})

	batch, err := svc.AnalyzeMultipleStocks(context.Background(), []string{"2317", "9999", "2330", "2317"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.TotalAnalyzed != 3 || batch.TotalErrors != 1 {
		t.Fatalf("expected 3 results and 1 error, got %d and %d", batch.TotalAnalyzed, batch.TotalErrors)
	}
	gotOrder := []string{batch.Results[0].StockID, batch.Results[1].StockID, batch.Results[2].StockID}
	if strings.Join(gotOrder, ",") != "2317,2330,2317" {
		t.Fatalf("expected input order with duplicates, got %v", gotOrder)
	}
	if batch.Errors[0].StockID != "9999" || batch.Errors[0].Kind != domain.KindNotFound {
		t.Fatalf("unexpected batch error %+v", batch.Errors[0])
	}
}

func TestGetRecommendationSummaryPartitions(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{
		"2330": acceleratingRise(),
		"2317": mirrored(acceleratingRise()),
	})

	summary, err := svc.GetRecommendationSummary(context.Background(), []string{"2330", "2317", "2303"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.BuyCount != 1 || summary.SellCount != 1 || summary.HoldCount != 0 {
		t.Fatalf("unexpected counts buy=%d sell=%d hold=%d", summary.BuyCount, summary.SellCount, summary.HoldCount)
	}
	if summary.BuyRecommendations[0].StockID != "2330" || summary.SellRecommendations[0].StockID != "2317" {
		t.Fatalf("unexpected partition %+v", summary)
	}
	if summary.TotalErrors != 1 || summary.Errors[0].StockID != "2303" {
		t.Fatalf("expected 2303 to fail, got %+v", summary.Errors)
	}
	if len(summary.AllResults) != 2 {
		t.Fatalf("expected 2 results overall, got %d", len(summary.AllResults))
	}
}

func TestSearchAndFilter(t *testing.T) {
	svc, _ := newTestAnalysisService(t, nil)
	ctx := context.Background()

	found, err := svc.SearchStocksByKeyword(ctx, "電")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 || found[0].Code != "2303" || found[1].Code != "2330" {
		t.Fatalf("unexpected search result %+v", found)
	}

	none, err := svc.SearchStocksByKeyword(ctx, "nothing-matches")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %v %v", none, err)
	}
	if _, err := svc.SearchStocksByKeyword(ctx, " "); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}

	semis, err := svc.FilterStocksByIndustry(ctx, "半導體業")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(semis) != 3 {
		t.Fatalf("expected 3 semiconductor stocks, got %d", len(semis))
	}
	if _, err := svc.FilterStocksByIndustry(ctx, ""); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
}

func TestRenderChart(t *testing.T) {
	svc, _ := newTestAnalysisService(t, map[string][]float64{"2330": acceleratingRise()})
	ctx := context.Background()

	if _, err := svc.RenderChart(ctx, "2330", 3); err == nil {
		t.Fatal("expected error without renderer")
	}

	chart := &stubChart{}
	svc.WithChartRenderer(chart)
	img, err := svc.RenderChart(ctx, "2330", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.StockID != "2330" || img.MimeType != "image/png" {
		t.Fatalf("unexpected image %+v", img)
	}
	if chart.lastMeta.Name != "台積電" || chart.lastParams.RSIPeriod != 14 {
		t.Fatalf("expected metadata and engine params passed to renderer, got %+v %+v", chart.lastMeta, chart.lastParams)
	}
}
