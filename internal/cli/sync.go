package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local archive cache from the server",
	Long: `Pages through the whole server archive and writes every document
to the local cache, then refreshes the statistics.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}
	if archive == nil {
		return errors.New("archive cache is disabled")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Syncing archive...")
	if err := docStore.ClearCriteria(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	pages := 1
	for docStore.State().Collection.HasMore {
		if err := docStore.LoadMore(ctx); err != nil {
			return fmt.Errorf("sync failed on page %d: %w", pages+1, err)
		}
		pages++
	}
	if err := docStore.RefreshStatistics(ctx); err != nil {
		cmd.Printf("statistics refresh failed: %v\n", err)
	}

	col := docStore.State().Collection
	cmd.Printf("Synced %d receipts across %d pages.\n", len(col.Items), pages)
	return nil
}
