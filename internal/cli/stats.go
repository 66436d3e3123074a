package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
)

var statsOffline bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate receipt statistics",
	Long: `Shows totals, per-category and per-month aggregates. With
--offline the numbers come from the local archive cache.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsOffline, "offline", false, "aggregate the local archive cache")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var stats entity.Statistics
	if statsOffline {
		if archive == nil {
			return errors.New("archive cache is disabled")
		}
		var err error
		stats, err = archive.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
	} else {
		if docStore == nil {
			return errors.New("document store not configured")
		}
		if err := docStore.RefreshStatistics(ctx); err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		st := docStore.State()
		if !st.StatsReady {
			cmd.Println("No statistics available yet.")
			return nil
		}
		stats = st.Statistics
	}

	cmd.Printf("Receipts:       %d\n", stats.TotalCount)
	cmd.Printf("Total amount:   %.2f\n", stats.TotalAmount)
	cmd.Printf("Average amount: %.2f\n", stats.AverageAmount)

	if len(stats.ByCategory) > 0 {
		cmd.Println("\nBy category:")
		names := make([]string, 0, len(stats.ByCategory))
		for name := range stats.ByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cs := stats.ByCategory[name]
			label := name
			if label == "" {
				label = "(uncategorized)"
			}
			cmd.Printf("  %-16s %5d  %12.2f\n", label, cs.Count, cs.Amount)
		}
	}

	if len(stats.ByMonth) > 0 {
		cmd.Println("\nBy month:")
		for _, ms := range stats.ByMonth {
			cmd.Printf("  %-8s %5d  %12.2f\n", ms.Month, ms.Count, ms.Amount)
		}
	}
	return nil
}
