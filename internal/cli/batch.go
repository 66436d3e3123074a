package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/ingest"
)

var (
	batchCurrency   string
	batchSkipHidden bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Submit every receipt under a directory",
	Long: `Walks a directory tree and submits every receipt file it finds,
one at a time, reporting per-file outcomes and a summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchCurrency, "currency", "", "ISO 4217 currency hint for submissions")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Printf("Scanning %s...\n", args[0])
	results, stats, err := ingest.IngestDirectory(ctx, args[0], batchCurrency, batchSkipHidden, trackedSubmit)
	if err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Err != "":
			cmd.Printf("  FAIL %s: %s\n", r.SourcePath, r.Err)
		case r.Deduplicated:
			cmd.Printf("  DUP  %s -> %s\n", r.SourcePath, r.DocumentID)
		default:
			cmd.Printf("  OK   %s -> %s (%s)\n", r.SourcePath, r.DocumentID, r.Phase)
		}
	}

	cmd.Printf("\nScanned %d, matched %d, succeeded %d, duplicates %d, failed %d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
	return nil
}
