package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/ingest"
)

var (
	submitCurrency string
	submitApprove  bool
)

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Upload a receipt and track extraction",
	Long: `Uploads a receipt file and polls until the server finishes
extraction. With --approve the extracted fields are archived as-is
instead of waiting for a manual review.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitCurrency, "currency", "", "ISO 4217 currency hint, e.g. EUR")
	submitCmd.Flags().BoolVar(&submitApprove, "approve", false, "archive the extracted fields without review")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if docStore == nil {
		return errors.New("document store not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	upload, err := ingest.Stage(args[0], submitCurrency)
	if err != nil {
		return fmt.Errorf("staging %s: %w", args[0], err)
	}

	cmd.Printf("Uploading %s (%d bytes)...\n", upload.Filename, upload.FileSize)
	id, err := docStore.SubmitReceipt(ctx, upload)
	if err != nil {
		return fmt.Errorf("upload rejected: %w", err)
	}
	cmd.Printf("Tracking %s...\n", id)

	job, err := docStore.AwaitTerminal(ctx)
	if err != nil {
		return err
	}
	printJobOutcome(cmd, job)

	if submitApprove && job.Phase == constants.PhaseResolved && job.Document != nil {
		doc, err := docStore.Approve(ctx, job.Document.ID, job.Document.Fields)
		if err != nil {
			return fmt.Errorf("approve failed: %w", err)
		}
		cmd.Printf("\nArchived %s.\n", doc.ID)
	}
	return nil
}

// trackedSubmit runs one staged upload through to a terminal phase.
// The watch and batch commands pass it to ingest as the SubmitFunc.
func trackedSubmit(ctx context.Context, upload entity.Upload) (ingest.Outcome, error) {
	if _, err := docStore.SubmitReceipt(ctx, upload); err != nil {
		return ingest.Outcome{}, err
	}
	job, err := docStore.AwaitTerminal(ctx)
	if err != nil {
		return ingest.Outcome{}, err
	}
	if job.Phase == constants.PhaseFailed || job.Phase == constants.PhaseTimedOut {
		return ingest.Outcome{}, job.Err
	}
	return ingest.Outcome{
		DocumentID: job.DocumentID,
		Phase:      job.Phase,
		Duplicate:  job.Phase == constants.PhaseDuplicate,
	}, nil
}
