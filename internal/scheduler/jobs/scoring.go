package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantscore/internal/contracts"
	"github.com/wonny/quantscore/internal/pipeline"
	"github.com/wonny/quantscore/pkg/logger"
)

// ScoringJob runs the full scoring pipeline on a schedule, one pass per
// trading day after the provider has refreshed its data.
type ScoringJob struct {
	pipeline *pipeline.Pipeline
	universe contracts.UniverseRepository
	schedule string
	logger   *logger.Logger
}

// NewScoringJob creates the scheduled scoring job
func NewScoringJob(p *pipeline.Pipeline, universeRepo contracts.UniverseRepository, schedule string, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		pipeline: p,
		universe: universeRepo,
		schedule: schedule,
		logger:   log.WithField("job", "scoring"),
	}
}

// Name implements scheduler.Job
func (j *ScoringJob) Name() string {
	return "scoring"
}

// Schedule implements scheduler.Job
func (j *ScoringJob) Schedule() string {
	return j.schedule
}

// Run loads today's universe and executes one pipeline pass
func (j *ScoringJob) Run(ctx context.Context) error {
	now := time.Now()
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	universe, err := j.universe.GetUniverse(ctx, asOf)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	if universe.Count() == 0 {
		return fmt.Errorf("universe for %s is empty", asOf.Format("2006-01-02"))
	}

	report, err := j.pipeline.Run(ctx, universe, asOf)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	if report.Persisted == 0 && report.TotalSymbols > 0 {
		return fmt.Errorf("run persisted no records (%d symbols, %d errored)", report.TotalSymbols, report.Errored)
	}

	return nil
}
