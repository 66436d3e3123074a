package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/ingest"
)

var (
	watchCurrency    string
	watchInitialScan bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Watch directories and submit new receipts",
	Long: `Watches the given directories recursively and submits every
receipt file that appears. Files are tracked one at a time until the
server finishes extraction. Stop with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchCurrency, "currency", "", "ISO 4217 currency hint for submissions")
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "also submit files already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "coalesce window for file events (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	debounce := watchDebounce
	if debounce == 0 && cfg != nil {
		debounce = cfg.Ingest.Debounce
	}

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitialScan,
		Debounce:    debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %d directories. Ctrl-C to stop.\n", len(args))

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil
		case err, ok := <-errCh:
			if !ok {
				return nil
			}
			cmd.Printf("watch error: %v\n", err)
		case path, ok := <-evCh:
			if !ok {
				return nil
			}
			handleWatchedFile(ctx, cmd, path)
		}
	}
}

func handleWatchedFile(ctx context.Context, cmd *cobra.Command, path string) {
	upload, err := ingest.Stage(path, watchCurrency)
	if err != nil {
		cmd.Printf("  skip %s: %v\n", path, err)
		return
	}

	cmd.Printf("  submit %s...\n", upload.Filename)
	outcome, err := trackedSubmit(ctx, upload)
	if err != nil {
		cmd.Printf("  %s failed: %v\n", upload.Filename, err)
		return
	}
	if outcome.Duplicate {
		cmd.Printf("  %s is a duplicate of %s\n", upload.Filename, outcome.DocumentID)
		return
	}
	cmd.Printf("  %s -> %s (%s)\n", upload.Filename, outcome.DocumentID, outcome.Phase)
}
