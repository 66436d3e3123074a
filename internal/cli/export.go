package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/entity"
)

var (
	exportOut      string
	exportFrom     string
	exportTo       string
	exportCategory string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the archive to an XLSX workbook",
	Long: `Writes the locally cached receipts to an XLSX workbook. Run list
or sync first so the cache is current.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "receipts.xlsx", "output file path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "from date YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "to date YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "filter by category")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exporter == nil {
		return errors.New("archive cache is disabled, nothing to export")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var crit entity.Criteria
	crit.Category = exportCategory
	if exportFrom != "" {
		t, err := time.Parse("2006-01-02", exportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %w", err)
		}
		crit.FromDate = &t
	}
	if exportTo != "" {
		t, err := time.Parse("2006-01-02", exportTo)
		if err != nil {
			return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %w", err)
		}
		crit.ToDate = &t
	}

	data, err := exporter.ExportArchiveXLSX(ctx, crit)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.WriteFile(exportOut, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOut, err)
	}

	cmd.Printf("Exported to %s (%d bytes).\n", exportOut, len(data))
	return nil
}
