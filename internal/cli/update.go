package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
)

var (
	updateVendor   string
	updateDate     string
	updateAmount   string
	updateCategory string
)

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Edit the fields of a receipt",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateVendor, "vendor", "", "new vendor")
	updateCmd.Flags().StringVar(&updateDate, "date", "", "new transaction date (YYYY-MM-DD)")
	updateCmd.Flags().StringVar(&updateAmount, "amount", "", "new amount")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "new category")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
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

	f := doc.Fields
	changed := false
	if updateVendor != "" {
		f.Vendor = entity.ExtractedField{Value: updateVendor, Confidence: 1}
		changed = true
	}
	if updateDate != "" {
		f.TxDate = entity.ExtractedField{Value: updateDate, Confidence: 1}
		changed = true
	}
	if updateAmount != "" {
		f.Amount = entity.ExtractedField{Value: updateAmount, Confidence: 1}
		changed = true
	}
	if updateCategory != "" {
		f.Category = entity.ExtractedField{Value: updateCategory, Confidence: 1}
		changed = true
	}
	if !changed {
		return errors.New("nothing to update, set at least one field flag")
	}

	updated, err := backend.UpdateDocument(ctx, id, f)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	cachePutQuiet(ctx, updated)

	cmd.Printf("Updated %s.\n\n", updated.ID)
	printDocument(cmd, updated)
	return nil
}
