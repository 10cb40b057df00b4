package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

const createAggregatesTable = `
CREATE TABLE IF NOT EXISTS district_aggregates (
	snapshot_id  TEXT        NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	district     TEXT        NOT NULL,
	mean_price   DOUBLE PRECISION NOT NULL,
	sample_count INTEGER     NOT NULL,
	lat          DOUBLE PRECISION NOT NULL,
	lon          DOUBLE PRECISION NOT NULL,
	area         TEXT        NOT NULL,
	PRIMARY KEY (snapshot_id, district)
)`

const insertAggregate = `
INSERT INTO district_aggregates
	(snapshot_id, generated_at, district, mean_price, sample_count, lat, lon, area)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (snapshot_id, district) DO NOTHING`

// PostgresWriter appends district aggregates to PostgreSQL, one row per
// district per snapshot. Snapshot IDs make re-publishing idempotent.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, verifies it, and ensures the export
// table exists.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres export: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres export: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createAggregatesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres export: migrate: %w", err)
	}
	return &PostgresWriter{db: db}, nil
}

func (w *PostgresWriter) PublishAggregates(ctx context.Context, snapshot *domain.Snapshot) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres export: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertAggregate)
	if err != nil {
		return fmt.Errorf("postgres export: prepare: %w", err)
	}
	defer stmt.Close()

	for _, agg := range snapshot.Districts {
		_, err := stmt.ExecContext(ctx,
			snapshot.ID, snapshot.GeneratedAt, agg.District,
			agg.MeanPrice, agg.SampleCount,
			agg.Centroid.Lat, agg.Centroid.Lon, agg.Area,
		)
		if err != nil {
			return fmt.Errorf("postgres export: insert %s: %w", agg.District, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres export: commit: %w", err)
	}
	return nil
}

func (w *PostgresWriter) Close() error {
	return w.db.Close()
}
