package analysis

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"twstock-advisor/internal/domain"
)

func TestRunBatchPreservesInputOrder(t *testing.T) {
	ids := []string{"1101", "2330", "2317", "2454", "2603", "2881"}
	analyze := func(_ context.Context, id string) (domain.Recommendation, error) {
		// later ids finish first
		for i, want := range ids {
			if want == id {
				time.Sleep(time.Duration(len(ids)-i) * 5 * time.Millisecond)
			}
		}
		if id == "2317" || id == "2881" {
			return domain.Recommendation{}, domain.NotFoundf("stock %s", id)
		}
		return domain.Recommendation{StockID: id}, nil
	}

	result := RunBatch(context.Background(), ids, 3, analyze)
	if result.TotalAnalyzed+result.TotalErrors != len(ids) {
		t.Fatalf("expected %d outcomes, got %d+%d", len(ids), result.TotalAnalyzed, result.TotalErrors)
	}
	wantOK := []string{"1101", "2330", "2454", "2603"}
	for i, rec := range result.Results {
		if rec.StockID != wantOK[i] {
			t.Fatalf("results[%d] = %s, want %s", i, rec.StockID, wantOK[i])
		}
	}
	if len(result.Errors) != 2 || result.Errors[0].StockID != "2317" || result.Errors[1].StockID != "2881" {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}
	if result.Errors[0].Kind != domain.KindNotFound || result.Errors[0].Error != "not found: stock 2317" {
		t.Fatalf("unexpected error record %+v", result.Errors[0])
	}
}

func TestRunBatchRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	analyze := func(_ context.Context, id string) (domain.Recommendation, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return domain.Recommendation{StockID: id}, nil
	}
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("%04d", 1000+i)
	}
	result := RunBatch(context.Background(), ids, 2, analyze)
	if result.TotalAnalyzed != len(ids) {
		t.Fatalf("expected all analyzed, got %d", result.TotalAnalyzed)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent analyses, saw %d", peak)
	}
}

func TestRunBatchRecordsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	result := RunBatch(ctx, []string{"2330"}, 1, func(context.Context, string) (domain.Recommendation, error) {
		called = true
		return domain.Recommendation{}, nil
	})
	if called {
		t.Fatal("analyze should not run after cancellation")
	}
	if result.TotalErrors != 1 || result.Errors[0].Error != context.Canceled.Error() || result.Errors[0].Kind != domain.KindInternal {
		t.Fatalf("expected one cancellation error, got %+v", result.Errors)
	}
}

func TestRunBatchEmptyInput(t *testing.T) {
	result := RunBatch(context.Background(), nil, 4, nil)
	if result.Results == nil || result.Errors == nil {
		t.Fatal("expected non-nil empty slices")
	}
	if result.TotalAnalyzed != 0 || result.TotalErrors != 0 {
		t.Fatalf("unexpected totals %+v", result)
	}
}

func TestRunBatchIsolatesShortHistory(t *testing.T) {
	e := newTestEngine(t)
	series := map[string]domain.PriceSeries{
		"2330": seriesFromCloses("2330", acceleratingRise()),
		"2317": seriesFromCloses("2317", []float64{100}),
		"2454": seriesFromCloses("2454", mirrored(acceleratingRise())),
	}
	analyze := func(_ context.Context, id string) (domain.Recommendation, error) {
		rec, err := e.Analyze(domain.StockMetadata{Code: id}, series[id])
		if err != nil {
			return domain.Recommendation{}, fmt.Errorf("analyze %s: %w", id, err)
		}
		return rec, nil
	}

	result := RunBatch(context.Background(), []string{"2330", "2317", "2454"}, 0, analyze)
	if result.TotalAnalyzed != 2 || result.TotalErrors != 1 {
		t.Fatalf("expected 2 results and 1 error, got %d/%d", result.TotalAnalyzed, result.TotalErrors)
	}
	if result.Results[0].StockID != "2330" || result.Results[1].StockID != "2454" {
		t.Fatalf("unexpected result order %s, %s", result.Results[0].StockID, result.Results[1].StockID)
	}
	if result.Errors[0].StockID != "2317" || result.Errors[0].Kind != domain.KindInsufficientData {
		t.Fatalf("unexpected error record %+v", result.Errors[0])
	}
}

func TestSummarizePartitionsAndSorts(t *testing.T) {
	batch := domain.BatchResult{
		Results: []domain.Recommendation{
			{StockID: "A", Action: domain.ActionBuy, Confidence: 40},
			{StockID: "B", Action: domain.ActionHold, Confidence: 50},
			{StockID: "C", Action: domain.ActionBuy, Confidence: 70},
			{StockID: "D", Action: domain.ActionSell, Confidence: 55},
			{StockID: "E", Action: domain.ActionBuy, Confidence: 40},
			{StockID: "F", Action: domain.ActionHold, Confidence: 50},
		},
		Errors: []domain.BatchError{{StockID: "X", Error: "not found: stock X", Kind: domain.KindNotFound}},
	}

	s := Summarize(batch)
	if s.TotalAnalyzed != 6 || s.BuyCount+s.SellCount+s.HoldCount != s.TotalAnalyzed {
		t.Fatalf("counts do not partition the results: %+v", s)
	}
	if s.BuyCount != 3 || s.SellCount != 1 || s.HoldCount != 2 {
		t.Fatalf("unexpected counts %d/%d/%d", s.BuyCount, s.SellCount, s.HoldCount)
	}
	assertOrder(t, "buy", s.BuyRecommendations, "C", "A", "E")
	assertOrder(t, "hold", s.HoldRecommendations, "B", "F")
	assertOrder(t, "all", s.AllResults, "C", "D", "B", "F", "A", "E")
	if s.TotalErrors != 1 || s.Errors[0].StockID != "X" {
		t.Fatalf("errors should be carried into the summary: %+v", s.Errors)
	}
	if batch.Results[0].StockID != "A" {
		t.Fatal("summarize must not reorder the batch")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(domain.BatchResult{})
	if s.BuyRecommendations == nil || s.SellRecommendations == nil || s.HoldRecommendations == nil || s.AllResults == nil || s.Errors == nil {
		t.Fatal("expected empty, non-nil groups")
	}
}

func assertOrder(t *testing.T, group string, recs []domain.Recommendation, ids ...string) {
	t.Helper()
	if len(recs) != len(ids) {
		t.Fatalf("%s: expected %d entries, got %d", group, len(ids), len(recs))
	}
	for i, id := range ids {
		if recs[i].StockID != id {
			t.Fatalf("%s[%d] = %s, want %s", group, i, recs[i].StockID, id)
		}
	}
}
