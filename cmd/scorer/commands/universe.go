package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Show the current scoring universe",
	Long: `Loads the symbol universe with eligibility filtering applied
and prints the included symbols plus exclusion reasons.

Example:
  go run ./cmd/scorer universe`,
	RunE: showUniverse,
}

func init() {
	rootCmd.AddCommand(universeCmd)
}

func showUniverse(cmd *cobra.Command, args []string) error {
	deps, err := initPipeline()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer deps.Close()

	asOf := midnight(time.Now())
	uni, err := deps.Universe.GetUniverse(context.Background(), asOf)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	fmt.Printf("Universe for %s: %d symbols, %d excluded\n\n", asOf.Format("2006-01-02"), uni.Count(), len(uni.Excluded))

	for _, s := range uni.Symbols {
		fmt.Printf("  %-8s %-32s %s\n", s.Ticker, s.Name, s.Sector)
	}

	if len(uni.Excluded) > 0 {
		fmt.Println("\nExcluded:")
		for ticker, reason := range uni.Excluded {
			fmt.Printf("  %-8s %s\n", ticker, reason)
		}
	}

	return nil
}
