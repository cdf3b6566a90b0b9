package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantscore/internal/scheduler"
	"github.com/wonny/quantscore/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Starts a daemon that executes one scoring pass per schedule
tick. The default schedule runs after US market close.

Example:
  go run ./cmd/scorer schedule
  go run ./cmd/scorer schedule --cron "0 22 * * 1-5"`,
	RunE: runSchedule,
}

var scheduleCron string

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "0 22 * * 1-5", "cron expression for the scoring job")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	deps, err := initPipeline()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer deps.Close()

	sched := scheduler.New(deps.Log)
	if err := sched.AddJob(jobs.NewScoringJob(deps.Pipeline, deps.Universe, scheduleCron, deps.Log)); err != nil {
		return fmt.Errorf("register scoring job: %w", err)
	}

	sched.Start()

	fmt.Println("=== quantscore scheduler ===")
	fmt.Printf("\nScoring job scheduled: %s\n", scheduleCron)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	return nil
}
