package contracts

import (
	"context"
	"time"
)

// MetricProvider is the injected data-source capability: given a symbol,
// return a raw metric bag or fail. Implementations classify failures as
// transient or permanent via internal/provider error types and must
// respect the per-call timeout carried by ctx.
type MetricProvider interface {
	Fetch(ctx context.Context, ticker string) (*RawMetricBag, error)
}

// ScoreRepository persists and reads score records
type ScoreRepository interface {
	// UpsertBatch writes records with full-replace semantics on
	// (ticker, as_of_date). A single row's failure is skipped, not
	// fatal; the returned count is the number of rows written.
	UpsertBatch(ctx context.Context, records []*ScoreRecord) (int, error)

	// GetByDate returns all records for an as-of date, ordered by ticker
	GetByDate(ctx context.Context, date time.Time) ([]*ScoreRecord, error)
}

// UniverseRepository loads the symbol universe for a run
type UniverseRepository interface {
	GetUniverse(ctx context.Context, date time.Time) (*Universe, error)
}
