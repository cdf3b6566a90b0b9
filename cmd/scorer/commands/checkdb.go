package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantscore/pkg/config"
	"github.com/wonny/quantscore/pkg/database"
)

// checkDBCmd represents the check-db command
var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Check the PostgreSQL connection",
	Long: `Loads config, connects to the scores database and prints
connection pool statistics.

Example:
  go run ./cmd/scorer check-db`,
	RunE: runCheckDB,
}

func init() {
	rootCmd.AddCommand(checkDBCmd)
}

func runCheckDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== quantscore database check ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fmt.Printf("Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	fmt.Println("Ping successful")

	stats := db.Stats()
	fmt.Println("\nConnection pool:")
	fmt.Printf("  Max Connections:      %d\n", stats.MaxConns)
	fmt.Printf("  Total Connections:    %d\n", stats.TotalConns)
	fmt.Printf("  Acquired Connections: %d\n", stats.AcquiredConns)
	fmt.Printf("  Idle Connections:     %d\n", stats.IdleConns)

	return nil
}

// maskPassword masks the credential section of a database URL for display
func maskPassword(url string) string {
	if len(url) < 55 {
		if len(url) < 30 {
			return "***"
		}
		return url[:30] + "***"
	}
	return url[:30] + "***" + url[len(url)-25:]
}
