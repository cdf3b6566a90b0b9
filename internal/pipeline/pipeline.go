package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantscore/internal/composite"
	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/internal/normalize"
	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/logger"
)

const (
	// Adaptive slowdown: when the mean error rate over the last
	// errorRateWindow batches exceeds errorRateThreshold, the run
	// pauses slowdownDelay before the next batch.
	errorRateWindow    = 3
	errorRateThreshold = 0.5
	slowdownDelay      = 5 * time.Second
)

// Pipeline runs one full ingestion-and-scoring pass: fetch every
// symbol's metric bag through the rate-limited provider, finalize
// universe statistics, normalize and blend into composites, and upsert
// the score records.
type Pipeline struct {
	provider  contracts.MetricProvider
	scoreRepo contracts.ScoreRepository
	calc      *composite.Calculator
	cfg       config.PipelineConfig
	backoff   Backoff
	logger    *logger.Logger

	// sleep is injectable so tests can run backoff paths without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a pipeline
func New(
	metricProvider contracts.MetricProvider,
	scoreRepo contracts.ScoreRepository,
	calc *composite.Calculator,
	cfg config.PipelineConfig,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		provider:  metricProvider,
		scoreRepo: scoreRepo,
		calc:      calc,
		cfg:       cfg,
		backoff:   NewBackoff(cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		logger:    log.WithField("module", "pipeline"),
		sleep:     sleepCtx,
	}
}

// Run executes one pipeline pass for the universe at the given as-of
// date. Individual symbol failures never abort the run; the report
// carries per-symbol outcomes and persistence counts.
func (p *Pipeline) Run(ctx context.Context, universe *contracts.Universe, asOf time.Time) (*contracts.RunReport, error) {
	start := time.Now()
	tickers := universe.Tickers()

	p.logger.WithFields(map[string]interface{}{
		"date":       asOf.Format("2006-01-02"),
		"symbols":    len(tickers),
		"workers":    p.cfg.EffectiveWorkers(),
		"batch_size": p.cfg.BatchSize,
	}).Info("Starting scoring run")

	report := &contracts.RunReport{
		Date:         asOf,
		TotalSymbols: len(tickers),
		Failures:     make(map[string]string),
	}

	// Phase 1: fetch all bags batch by batch. Bags are collected for
	// the whole universe before any scoring so the normalization
	// statistics cover a full pass over the fetched data.
	results := make(map[string]fetchResult, len(tickers))
	batches := partition(tickers, p.cfg.BatchSize)
	recentRates := make([]float64, 0, len(batches))

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("run cancelled: %w", err)
		}

		batchStart := time.Now()
		batchResults := p.fetchBatch(ctx, batch)

		br := contracts.BatchResult{BatchID: i, Attempted: len(batch)}
		for ticker, r := range batchResults {
			results[ticker] = r
			switch r.Outcome {
			case contracts.OutcomeSucceeded:
				br.Succeeded++
			case contracts.OutcomeNoData:
				br.NoData++
				if r.Err != nil {
					report.Failures[ticker] = r.Err.Error()
				}
			case contracts.OutcomeErrored:
				br.Errored++
				if r.Err != nil {
					report.Failures[ticker] = r.Err.Error()
				}
			}
		}
		br.Elapsed = time.Since(batchStart)
		report.Batches = append(report.Batches, br)

		p.logger.WithFields(map[string]interface{}{
			"batch":     i,
			"batches":   len(batches),
			"succeeded": br.Succeeded,
			"no_data":   br.NoData,
			"errored":   br.Errored,
			"elapsed":   br.Elapsed,
		}).Info("Batch completed")

		// Slow down when the recent error rate spikes; the provider is
		// likely degraded and hammering it helps nobody
		recentRates = append(recentRates, br.ErrorRate())
		if shouldSlowDown(recentRates) && i < len(batches)-1 {
			p.logger.WithField("delay", slowdownDelay).Warn("High error rate, slowing down")
			if err := p.sleep(ctx, slowdownDelay); err != nil {
				return report, fmt.Errorf("run cancelled: %w", err)
			}
		}
	}

	// Phase 2: finalize universe statistics over every fetched bag,
	// then score. The snapshot is immutable from here on, so scores do
	// not depend on worker interleaving during the fetch phase.
	bags := make([]*contracts.RawMetricBag, 0, len(results))
	for _, r := range results {
		if r.Outcome == contracts.OutcomeSucceeded {
			bags = append(bags, r.Bag)
		}
	}
	stats := normalize.ComputeStats(bags, normalize.Config{
		WinsorizeLower: p.cfg.WinsorizeLower,
		WinsorizeUpper: p.cfg.WinsorizeUpper,
		ZScoreClamp:    p.cfg.ZScoreClamp,
	})
	normalizer := normalize.New(stats)

	// Symbols are scored in universe order: identical inputs produce
	// byte-identical records on every run
	records := make([]*contracts.ScoreRecord, 0, len(bags))
	for _, symbol := range universe.Symbols {
		r, ok := results[symbol.Ticker]
		if !ok || r.Outcome != contracts.OutcomeSucceeded {
			continue
		}

		record, err := p.scoreSymbol(normalizer, r.Bag, asOf)
		if err != nil {
			// A non-finite score is a logic bug; drop this record only
			// and say so loudly
			p.logger.WithError(err).WithField("ticker", symbol.Ticker).Error("Score validation failed, skipping record")
			report.Failures[symbol.Ticker] = err.Error()
			report.Errored++
			continue
		}
		records = append(records, record)
		report.Succeeded++
	}

	for _, br := range report.Batches {
		report.NoData += br.NoData
		report.Errored += br.Errored
	}

	// Phase 3: persist in batches; a row failure is skipped, not fatal
	for start := 0; start < len(records); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		written, err := p.scoreRepo.UpsertBatch(ctx, chunk)
		if err != nil {
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"from": start,
				"to":   end,
			}).Error("Score batch upsert failed")
			report.PersistFailed += len(chunk)
			continue
		}
		report.Persisted += written
		report.PersistFailed += len(chunk) - written
	}

	report.Elapsed = time.Since(start)

	p.logger.WithFields(map[string]interface{}{
		"date":           asOf.Format("2006-01-02"),
		"total":          report.TotalSymbols,
		"succeeded":      report.Succeeded,
		"no_data":        report.NoData,
		"errored":        report.Errored,
		"persisted":      report.Persisted,
		"persist_failed": report.PersistFailed,
		"elapsed":        report.Elapsed,
	}).Info("Scoring run completed")

	return report, nil
}

// scoreSymbol builds the full score record for one fetched bag
func (p *Pipeline) scoreSymbol(normalizer *normalize.Normalizer, bag *contracts.RawMetricBag, asOf time.Time) (*contracts.ScoreRecord, error) {
	scores := normalizer.ScoreBag(bag)

	compositeScore, applied, err := p.calc.Combine(bag.Ticker, scores)
	if err != nil {
		return nil, err
	}

	inputs := make(map[contracts.MetricName]float64, bag.Len())
	for _, def := range contracts.AllMetrics() {
		if v, ok := bag.Get(def.Name); ok {
			inputs[def.Name] = v
		}
	}

	return &contracts.ScoreRecord{
		Ticker:         bag.Ticker,
		AsOfDate:       asOf,
		Composite:      compositeScore,
		AppliedWeights: applied,
		Categories:     scores,
		Sentiment:      scores[contracts.CategorySentiment],
		MetricInputs:   inputs,
		Completeness:   bag.Completeness(),
	}, nil
}

// shouldSlowDown checks the mean error rate of the trailing window
func shouldSlowDown(rates []float64) bool {
	if len(rates) < errorRateWindow {
		return false
	}
	var sum float64
	for _, r := range rates[len(rates)-errorRateWindow:] {
		sum += r
	}
	return sum/float64(errorRateWindow) > errorRateThreshold
}

// sleepCtx sleeps for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
