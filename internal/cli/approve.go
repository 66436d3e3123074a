package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/fields"
)

var (
	approveVendor   string
	approveDate     string
	approveAmount   string
	approveCategory string
)

var approveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a receipt awaiting review",
	Long: `Archives a receipt that finished extraction. Field flags override
the extracted values; anything left unset is kept as extracted.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func init() {
	approveCmd.Flags().StringVar(&approveVendor, "vendor", "", "override vendor")
	approveCmd.Flags().StringVar(&approveDate, "date", "", "override transaction date (YYYY-MM-DD)")
	approveCmd.Flags().StringVar(&approveAmount, "amount", "", "override amount")
	approveCmd.Flags().StringVar(&approveCategory, "category", "", "override category")
	rootCmd.AddCommand(approveCmd)
}

func runApprove(cmd *cobra.Command, args []string) error {
	if backend == nil {
		return errors.New("backend not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	id := args[0]

	doc, err := backend.FetchDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if !doc.Status.Resolved() {
		return fmt.Errorf("receipt %s is %s, not ready to approve", id, doc.Status)
	}

	final := finalFields(doc.Fields)
	if err := fields.Validate(final); err != nil {
		return fmt.Errorf("final fields invalid: %w", err)
	}

	approved, err := backend.ApproveDocument(ctx, id, final)
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	cachePutQuiet(ctx, approved)

	cmd.Printf("Approved %s.\n\n", approved.ID)
	printDocument(cmd, approved)
	return nil
}

// finalFields applies the override flags on top of the extracted
// values. Overridden fields carry full confidence: the user vouched.
func finalFields(extracted entity.ExtractedFields) entity.ExtractedFields {
	final := extracted
	if approveVendor != "" {
		final.Vendor = entity.ExtractedField{Value: approveVendor, Confidence: 1}
	}
	if approveDate != "" {
		final.TxDate = entity.ExtractedField{Value: approveDate, Confidence: 1}
	}
	if approveAmount != "" {
		final.Amount = entity.ExtractedField{Value: approveAmount, Confidence: 1}
	}
	if approveCategory != "" {
		final.Category = entity.ExtractedField{Value: approveCategory, Confidence: 1}
	}
	return final
}

func cachePutQuiet(ctx context.Context, doc entity.Document) {
	if archive == nil {
		return
	}
	if err := archive.Put(ctx, doc); err != nil && logger != nil {
		logger.Warn("cli.cache.put_failed", "document_id", doc.ID, "error", err)
	}
}
