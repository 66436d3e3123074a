package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// Lister supplies the documents to export; the local archive cache
// implements it.
type Lister interface {
	List(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error)
}

// Service is a tiny façade over the archive that produces XLSX bytes
// for exports.
type Service struct {
	docs   Lister
	logger *slog.Logger
}

func NewService(docs Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

// ExportArchiveXLSX returns an XLSX workbook (as bytes) for the given
// criteria. Date bounds are normalized to date-only UTC; a from without
// a to means from..today inclusive. Rows come out oldest first with a
// totals line at the bottom.
func (s *Service) ExportArchiveXLSX(ctx context.Context, crit entity.Criteria) ([]byte, error) {
	start := time.Now()

	crit = crit.Clone()
	if crit.FromDate != nil {
		f := dateOnly(*crit.FromDate)
		crit.FromDate = &f
	}
	if crit.ToDate != nil {
		t := dateOnly(*crit.ToDate)
		crit.ToDate = &t
	}
	if crit.FromDate != nil && crit.ToDate == nil {
		t := dateOnly(time.Now().UTC())
		crit.ToDate = &t
	}

	docs, _, err := s.docs.List(ctx, crit, entity.Sort{Field: entity.SortByDate}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Transaction Date",
		"Category",
		"Vendor",
		"Amount",
		"Currency",
		"Status",
		"Needs Review",
		"Receipt URL",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	var totalAmount float64
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		vendor := d.Fields.Vendor.Value
		if vendor == "" {
			vendor = "—"
		}

		review := ""
		if d.NeedsReview {
			review = "yes"
		}

		write(1, d.Fields.TxDate.Value)
		write(2, d.Fields.Category.Value)
		write(3, truncate(vendor, 64))
		write(4, d.Amount())
		write(5, d.CurrencyCode)
		write(6, string(d.Status))
		write(7, review)
		write(8, d.ImageURL)

		totalAmount += d.Amount()
		row++
	}

	if len(docs) > 0 {
		totalLabel, _ := excelize.CoordinatesToCellName(3, row)
		_ = f.SetCellValue(sheet, totalLabel, "Total")
		totalCell, _ := excelize.CoordinatesToCellName(4, row)
		_ = f.SetCellValue(sheet, totalCell, totalAmount)
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "B", 22) // category
	_ = f.SetColWidth(sheet, "C", "C", 28) // vendor
	_ = f.SetColWidth(sheet, "D", "E", 14) // amount, currency
	_ = f.SetColWidth(sheet, "F", "G", 14) // status, review
	_ = f.SetColWidth(sheet, "H", "H", 60) // url

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
