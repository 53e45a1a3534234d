package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"twstock-advisor/internal/domain"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS daily_prices (
		stock_id   TEXT             NOT NULL,
		trade_date DATE             NOT NULL,
		open       DOUBLE PRECISION NOT NULL,
		high       DOUBLE PRECISION NOT NULL,
		low        DOUBLE PRECISION NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		volume     BIGINT           NOT NULL,
		source     TEXT             NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (stock_id, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS ssh_users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT        NOT NULL UNIQUE,
		display_name  TEXT        NOT NULL DEFAULT '',
		public_key    TEXT        NOT NULL,
		key_type      TEXT        NOT NULL,
		fingerprint   TEXT        NOT NULL UNIQUE,
		watchlist     TEXT[]      NOT NULL DEFAULT '{}',
		is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// RunMigrations creates the tables used by the price archive and the SSH dashboard.
func RunMigrations(ctx context.Context, pool PgxPool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// PriceRepository archives raw daily prices. It never stores analysis output.
type PriceRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPriceRepository(pool PgxPool, tracer trace.Tracer) *PriceRepository {
	return &PriceRepository{pool: pool, tracer: tracer}
}

func (r *PriceRepository) UpsertPrices(ctx context.Context, stockID, source string, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "price-repo.upsert-prices")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", stockID), attribute.Int("points", len(points)))

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO daily_prices (stock_id, trade_date, open, high, low, close, volume, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (stock_id, trade_date) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume,
			     source = EXCLUDED.source,
			     updated_at = NOW()`,
			stockID, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, source,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetPricesInRange returns archived points between from and to inclusive, oldest first.
func (r *PriceRepository) GetPricesInRange(ctx context.Context, stockID string, from, to time.Time) ([]domain.PricePoint, error) {
	_, span := r.tracer.Start(ctx, "price-repo.get-prices-in-range")
	defer span.End()
	span.SetAttributes(attribute.String("stock_id", stockID))

	rows, err := r.pool.Query(ctx,
		`SELECT trade_date, open, high, low, close, volume
		 FROM daily_prices
		 WHERE stock_id = $1 AND trade_date >= $2 AND trade_date <= $3
		 ORDER BY trade_date ASC`,
		stockID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
