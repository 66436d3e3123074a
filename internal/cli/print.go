package cli

import (
	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func printDocument(cmd *cobra.Command, doc entity.Document) {
	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Status:    %s\n", doc.Status)
	cmd.Printf("  Vendor:    %s (%.2f)\n", doc.Fields.Vendor.Value, doc.Fields.Vendor.Confidence)
	cmd.Printf("  Date:      %s (%.2f)\n", doc.Fields.TxDate.Value, doc.Fields.TxDate.Confidence)
	cmd.Printf("  Amount:    %s %s (%.2f)\n", doc.Fields.Amount.Value, doc.CurrencyCode, doc.Fields.Amount.Confidence)
	cmd.Printf("  Category:  %s (%.2f)\n", doc.Fields.Category.Value, doc.Fields.Category.Confidence)
	if doc.NeedsReview {
		cmd.Printf("  Review:    needed\n")
	}
	if doc.ImageURL != "" {
		cmd.Printf("  Image:     %s\n", doc.ImageURL)
	}
}

func printDocumentLine(cmd *cobra.Command, doc entity.Document) {
	review := ""
	if doc.NeedsReview {
		review = "  [review]"
	}
	cmd.Printf("  %s  %-12s %-24s %10s %s%s\n",
		doc.ID,
		doc.Fields.TxDate.Value,
		clip(doc.Fields.Vendor.Value, 24),
		doc.Fields.Amount.Value,
		doc.CurrencyCode,
		review,
	)
}

func printJobOutcome(cmd *cobra.Command, job store.Job) {
	switch {
	case job.Err != nil && job.Document != nil:
		// duplicate: the existing record arrives together with the error
		cmd.Printf("Duplicate of an existing receipt (%s).\n\n", job.DocumentID)
		printDocument(cmd, *job.Document)
	case job.Err != nil:
		cmd.Printf("Tracking ended in %s: %v\n", job.Phase, job.Err)
	case job.Document != nil:
		cmd.Printf("Extraction finished after %d checks.\n\n", job.Ticks)
		printDocument(cmd, *job.Document)
	default:
		cmd.Printf("Tracking ended in %s.\n", job.Phase)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
