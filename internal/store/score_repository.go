package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/pkg/logger"
)

// ScoreRepository persists score records in PostgreSQL, one row per
// (ticker, as_of_date). Re-running a date replaces rows entirely so a
// stale partial row never survives a fresh computation.
type ScoreRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool, log *logger.Logger) *ScoreRepository {
	return &ScoreRepository{
		pool:   pool,
		logger: log.WithField("module", "store"),
	}
}

const upsertQuery = `
	INSERT INTO scores.score_records (
		ticker, as_of_date,
		composite, momentum, value, quality, growth, stability, positioning, sentiment,
		applied_weights, metric_inputs, completeness, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
	ON CONFLICT (ticker, as_of_date) DO UPDATE SET
		composite = EXCLUDED.composite,
		momentum = EXCLUDED.momentum,
		value = EXCLUDED.value,
		quality = EXCLUDED.quality,
		growth = EXCLUDED.growth,
		stability = EXCLUDED.stability,
		positioning = EXCLUDED.positioning,
		sentiment = EXCLUDED.sentiment,
		applied_weights = EXCLUDED.applied_weights,
		metric_inputs = EXCLUDED.metric_inputs,
		completeness = EXCLUDED.completeness,
		updated_at = NOW()
`

// UpsertBatch writes records through a single pgx batch. When the batch
// fails it falls back to row-by-row writes so one bad row is logged and
// skipped instead of sinking its whole chunk. Returns rows written.
func (r *ScoreRepository) UpsertBatch(ctx context.Context, records []*contracts.ScoreRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		args, err := upsertArgs(record)
		if err != nil {
			r.logger.WithError(err).WithField("ticker", record.Ticker).Error("Skipping unencodable record")
			continue
		}
		batch.Queue(upsertQuery, args...)
	}

	br := r.pool.SendBatch(ctx, batch)
	var batchErr error
	written := 0
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			batchErr = err
			break
		}
		written++
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = err
	}
	if batchErr == nil {
		return written, nil
	}

	// The batch runs in one implicit transaction, so a single failing
	// row aborts all of it. Retry row by row to salvage the good rows.
	r.logger.WithError(batchErr).WithField("records", len(records)).Warn("Batch upsert failed, retrying row by row")
	return r.upsertRows(ctx, records)
}

// upsertRows writes records one at a time, skipping failures
func (r *ScoreRepository) upsertRows(ctx context.Context, records []*contracts.ScoreRecord) (int, error) {
	written := 0
	for _, record := range records {
		args, err := upsertArgs(record)
		if err != nil {
			r.logger.WithError(err).WithField("ticker", record.Ticker).Error("Skipping unencodable record")
			continue
		}
		if _, err := r.pool.Exec(ctx, upsertQuery, args...); err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"ticker": record.Ticker,
				"date":   record.AsOfDate.Format("2006-01-02"),
			}).Error("Row upsert failed, skipping")
			continue
		}
		written++
	}
	return written, nil
}

// upsertArgs builds the query arguments for one record
func upsertArgs(record *contracts.ScoreRecord) ([]interface{}, error) {
	weightsJSON, err := json.Marshal(record.AppliedWeights)
	if err != nil {
		return nil, fmt.Errorf("marshal applied weights: %w", err)
	}
	inputsJSON, err := json.Marshal(record.MetricInputs)
	if err != nil {
		return nil, fmt.Errorf("marshal metric inputs: %w", err)
	}

	cs := record.Categories
	return []interface{}{
		record.Ticker, record.AsOfDate,
		record.Composite,
		cs[contracts.CategoryMomentum],
		cs[contracts.CategoryValue],
		cs[contracts.CategoryQuality],
		cs[contracts.CategoryGrowth],
		cs[contracts.CategoryStability],
		cs[contracts.CategoryPositioning],
		record.Sentiment,
		weightsJSON, inputsJSON,
		record.Completeness,
	}, nil
}

// GetByDate returns all score records for an as-of date, ordered by ticker
func (r *ScoreRepository) GetByDate(ctx context.Context, date time.Time) ([]*contracts.ScoreRecord, error) {
	query := `
		SELECT
			ticker, as_of_date,
			composite, momentum, value, quality, growth, stability, positioning, sentiment,
			applied_weights, metric_inputs, completeness
		FROM scores.score_records
		WHERE as_of_date = $1
		ORDER BY ticker
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query score records: %w", err)
	}
	defer rows.Close()

	var records []*contracts.ScoreRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// scanRecord maps one row back into a ScoreRecord
func scanRecord(rows pgx.Rows) (*contracts.ScoreRecord, error) {
	var record contracts.ScoreRecord
	var momentum, value, quality, growth, stability, positioning *float64
	var weightsJSON, inputsJSON []byte

	err := rows.Scan(
		&record.Ticker, &record.AsOfDate,
		&record.Composite,
		&momentum, &value, &quality, &growth, &stability, &positioning,
		&record.Sentiment,
		&weightsJSON, &inputsJSON, &record.Completeness,
	)
	if err != nil {
		return nil, fmt.Errorf("scan score record: %w", err)
	}

	record.Categories = contracts.CategoryScores{
		contracts.CategoryMomentum:    momentum,
		contracts.CategoryValue:       value,
		contracts.CategoryQuality:     quality,
		contracts.CategoryGrowth:      growth,
		contracts.CategoryStability:   stability,
		contracts.CategoryPositioning: positioning,
		contracts.CategorySentiment:   record.Sentiment,
	}

	if len(weightsJSON) > 0 {
		if err := json.Unmarshal(weightsJSON, &record.AppliedWeights); err != nil {
			return nil, fmt.Errorf("unmarshal applied weights: %w", err)
		}
	}
	if len(inputsJSON) > 0 {
		if err := json.Unmarshal(inputsJSON, &record.MetricInputs); err != nil {
			return nil, fmt.Errorf("unmarshal metric inputs: %w", err)
		}
	}

	return &record, nil
}
