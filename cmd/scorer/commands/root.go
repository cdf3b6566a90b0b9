package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scorer",
	Short: "quantscore - factor scoring pipeline",
	Long: `quantscore CLI

Ingests per-security metrics from the configured provider and reduces
them to one composite investment score per security per day.

Usage:
  go run ./cmd/scorer [command]

Examples:
  go run ./cmd/scorer run
  go run ./cmd/scorer run --date 2026-08-28
  go run ./cmd/scorer schedule
  go run ./cmd/scorer universe
  go run ./cmd/scorer check-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
