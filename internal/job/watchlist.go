package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/domain"
)

const refreshTimeout = 5 * time.Minute

type SummaryProvider interface {
	GetRecommendationSummary(ctx context.Context, stockIDs []string, months int) (domain.RecommendationSummary, error)
}

type SummaryNotifier interface {
	NotifySummary(ctx context.Context, summary domain.RecommendationSummary) error
}

// WatchlistRefresher summarizes a fixed list of stocks on a cron schedule
// and hands the result to a notifier.
type WatchlistRefresher struct {
	tracer   trace.Tracer
	svc      SummaryProvider
	notifier SummaryNotifier
	codes    []string
	months   int
	spec     string
	location *time.Location
}

// NewWatchlistRefresher takes a six-field cron spec (seconds first)
// evaluated in loc. A nil notifier only logs the summary.
func NewWatchlistRefresher(tracer trace.Tracer, svc SummaryProvider, notifier SummaryNotifier, codes []string, months int, spec string, loc *time.Location) *WatchlistRefresher {
	if loc == nil {
		loc = time.Local
	}
	return &WatchlistRefresher{
		tracer:   tracer,
		svc:      svc,
		notifier: notifier,
		codes:    append([]string(nil), codes...),
		months:   months,
		spec:     spec,
		location: loc,
	}
}

// Start schedules the refresh and blocks until ctx is cancelled. It returns
// an error only for an invalid cron spec.
func (r *WatchlistRefresher) Start(ctx context.Context) error {
	if r.svc == nil || len(r.codes) == 0 {
		log.Println("Watchlist refresher disabled: empty watchlist")
		<-ctx.Done()
		return nil
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(r.location))
	if _, err := c.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			log.Printf("watchlist refresh failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register watchlist refresh %q: %w", r.spec, err)
	}

	c.Start()
	log.Printf("Watchlist refresher started: %d stocks, schedule %q", len(r.codes), r.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Watchlist refresher stopped")
	return nil
}

// RunOnce summarizes the watchlist and notifies subscribers. Notification
// failures are logged and do not fail the run.
func (r *WatchlistRefresher) RunOnce(ctx context.Context) (domain.RecommendationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "watchlist.refresh")
	defer span.End()
	span.SetAttributes(attribute.Int("watchlist.size", len(r.codes)))

	summary, err := r.svc.GetRecommendationSummary(ctx, r.codes, r.months)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary failed")
		return domain.RecommendationSummary{}, err
	}
	log.Printf("watchlist refresh: %d analyzed (buy %d, sell %d, hold %d), %d failed",
		summary.TotalAnalyzed, summary.BuyCount, summary.SellCount, summary.HoldCount, summary.TotalErrors)

	if r.notifier != nil {
		if err := r.notifier.NotifySummary(ctx, summary); err != nil {
			log.Printf("watchlist notify error: %v", err)
		}
	}
	return summary, nil
}
