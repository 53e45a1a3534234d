package analysis

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"twstock-advisor/internal/domain"
)

// AnalyzeFunc produces the recommendation for one stock id.
type AnalyzeFunc func(ctx context.Context, stockID string) (domain.Recommendation, error)

// RunBatch analyzes every id independently with at most concurrency calls in
// flight (no limit when concurrency <= 0). Results and errors keep the input
// order regardless of completion order, and a failed id never stops the rest.
func RunBatch(ctx context.Context, stockIDs []string, concurrency int, analyze AnalyzeFunc) domain.BatchResult {
	type outcome struct {
		rec domain.Recommendation
		err error
	}
	outcomes := make([]outcome, len(stockIDs))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, id := range stockIDs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].err = err
				return nil
			}
			rec, err := analyze(ctx, id)
			outcomes[i] = outcome{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := domain.BatchResult{
		Results: make([]domain.Recommendation, 0, len(stockIDs)),
		Errors:  make([]domain.BatchError, 0),
	}
	for i, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, domain.BatchError{
				StockID: stockIDs[i],
				Error:   o.err.Error(),
				Kind:    domain.ErrorKind(o.err),
			})
			continue
		}
		result.Results = append(result.Results, o.rec)
	}
	result.TotalAnalyzed = len(result.Results)
	result.TotalErrors = len(result.Errors)
	return result
}

// Summarize partitions a batch by action. Every group, and AllResults, is
// ordered by descending confidence; equal confidences keep batch order.
func Summarize(batch domain.BatchResult) domain.RecommendationSummary {
	summary := domain.RecommendationSummary{
		TotalAnalyzed:       len(batch.Results),
		BuyRecommendations:  make([]domain.Recommendation, 0),
		SellRecommendations: make([]domain.Recommendation, 0),
		HoldRecommendations: make([]domain.Recommendation, 0),
		AllResults:          byConfidence(batch.Results),
		Errors:              append(make([]domain.BatchError, 0, len(batch.Errors)), batch.Errors...),
		TotalErrors:         len(batch.Errors),
	}
	for _, rec := range summary.AllResults {
		switch rec.Action {
		case domain.ActionBuy:
			summary.BuyRecommendations = append(summary.BuyRecommendations, rec)
		case domain.ActionSell:
			summary.SellRecommendations = append(summary.SellRecommendations, rec)
		default:
			summary.HoldRecommendations = append(summary.HoldRecommendations, rec)
		}
	}
	summary.BuyCount = len(summary.BuyRecommendations)
	summary.SellCount = len(summary.SellRecommendations)
	summary.HoldCount = len(summary.HoldRecommendations)
	return summary
}

func byConfidence(in []domain.Recommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
