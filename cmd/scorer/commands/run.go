package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantscore/internal/composite"
	"github.com/wonny/quantscore/internal/pipeline"
	"github.com/wonny/quantscore/internal/provider"
	"github.com/wonny/quantscore/internal/store"
	"github.com/wonny/quantscore/internal/universe"
	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/database"
	"github.com/wonny/quantscore/pkg/logger"
	"github.com/wonny/quantscore/pkg/redis"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full scoring pass",
	Long: `Runs the complete pipeline once: loads the universe, fetches
metric bags for every symbol through the rate-limited provider,
normalizes against universe statistics, blends composites and upserts
the score records.

Example:
  go run ./cmd/scorer run
  go run ./cmd/scorer run --date 2026-08-28`,
	RunE: runScoring,
}

var runDate string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "as-of date (YYYY-MM-DD, default today)")
}

func runScoring(cmd *cobra.Command, args []string) error {
	asOf := midnight(time.Now())
	if runDate != "" {
		parsed, err := time.Parse("2006-01-02", runDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", runDate, err)
		}
		asOf = parsed
	}

	deps, err := initPipeline()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer deps.Close()

	ctx := context.Background()

	uni, err := deps.Universe.GetUniverse(ctx, asOf)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	fmt.Printf("=== quantscore run ===\n\n")
	fmt.Printf("Date:     %s\n", asOf.Format("2006-01-02"))
	fmt.Printf("Symbols:  %d (excluded: %d)\n\n", uni.Count(), len(uni.Excluded))

	report, err := deps.Pipeline.Run(ctx, uni, asOf)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	fmt.Printf("\nRun summary\n")
	fmt.Printf("  succeeded:      %d\n", report.Succeeded)
	fmt.Printf("  no_data:        %d\n", report.NoData)
	fmt.Printf("  errored:        %d\n", report.Errored)
	fmt.Printf("  persisted:      %d\n", report.Persisted)
	fmt.Printf("  persist_failed: %d\n", report.PersistFailed)
	fmt.Printf("  elapsed:        %s\n", report.Elapsed.Round(time.Millisecond))

	return nil
}

// pipelineDeps bundles everything a run needs plus its cleanups.
// Config and Log are the single loaded instances; commands must not
// load a second copy.
type pipelineDeps struct {
	Pipeline *pipeline.Pipeline
	Universe *universe.Builder
	Config   *config.Config
	Log      *logger.Logger
	db       *database.DB
	rdb      *redis.Client
}

// Close releases held connections
func (d *pipelineDeps) Close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

// midnight returns the start of t's calendar day in t's location.
// Truncating against the epoch instead would shift the as-of date for
// operators away from UTC.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// initPipeline builds the full dependency graph from config
func initPipeline() (*pipelineDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpProvider := provider.NewHTTPProvider(cfg.Provider, log)
	client := provider.NewRateLimitedClient(httpProvider, cfg.Provider, log)
	if rdb.Enabled() {
		client = client.WithSharedLimiter(
			redis.NewRateLimiter(rdb, "quantscore"),
			redis.RateLimitConfig{
				Key:    "provider",
				Limit:  cfg.Provider.RateLimit,
				Window: cfg.Provider.RateWindow,
			},
		)
	}

	calc := composite.NewCalculator(cfg.Pipeline.Weights, cfg.Pipeline.MinCategories, log)
	scoreRepo := store.NewScoreRepository(db.Pool, log)
	universeBuilder := universe.NewBuilder(db.Pool, universe.DefaultConfig())

	return &pipelineDeps{
		Pipeline: pipeline.New(client, scoreRepo, calc, cfg.Pipeline, log),
		Universe: universeBuilder,
		Config:   cfg,
		Log:      log,
		db:       db,
		rdb:      rdb,
	}, nil
}
