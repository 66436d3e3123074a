package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLister implements Lister for testing.
type mockLister struct {
	ListFunc func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error)
}

func (m *mockLister) List(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, crit, sort, limit, offset)
	}
	return nil, 0, nil
}

func exportDoc(id, vendor, date, amount string) entity.Document {
	return entity.Document{
		ID:     id,
		Status: constants.DocumentApproved,
		Fields: entity.ExtractedFields{
			Vendor:   entity.ExtractedField{Value: vendor, Confidence: 0.9},
			TxDate:   entity.ExtractedField{Value: date, Confidence: 0.9},
			Amount:   entity.ExtractedField{Value: amount, Confidence: 0.9},
			Category: entity.ExtractedField{Value: "Dining", Confidence: 0.9},
		},
		CurrencyCode: "USD",
	}
}

func TestExportArchiveXLSX(t *testing.T) {
	docs := []entity.Document{
		exportDoc("r1", "Blue Bottle Coffee", "2025-05-01", "4.50"),
		exportDoc("r2", "", "2025-06-10", "19.95"),
	}
	docs[1].NeedsReview = true
	docs[1].ImageURL = "https://cdn.example.com/r2.jpg"

	lister := &mockLister{
		ListFunc: func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
			assert.Equal(t, entity.SortByDate, sort.Field)
			assert.False(t, sort.Descending, "exports run oldest first")
			assert.Zero(t, limit, "exports are unbounded")
			return docs, len(docs), nil
		},
	}
	svc := NewService(lister, testLogger())

	out, err := svc.ExportArchiveXLSX(context.Background(), entity.Criteria{})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, two receipts, totals line")

	assert.Equal(t, []string{
		"Transaction Date", "Category", "Vendor", "Amount",
		"Currency", "Status", "Needs Review", "Receipt URL",
	}, rows[0])

	assert.Equal(t, "2025-05-01", rows[1][0])
	assert.Equal(t, "Dining", rows[1][1])
	assert.Equal(t, "Blue Bottle Coffee", rows[1][2])
	assert.Equal(t, "4.5", rows[1][3])
	assert.Equal(t, "USD", rows[1][4])
	assert.Equal(t, "APPROVED", rows[1][5])

	assert.Equal(t, "—", rows[2][2], "missing vendor renders as a dash")
	assert.Equal(t, "yes", rows[2][6])
	assert.Equal(t, "https://cdn.example.com/r2.jpg", rows[2][7])

	assert.Equal(t, "Total", rows[3][2])
	assert.Equal(t, "24.45", rows[3][3])
}

func TestExportArchiveXLSX_Empty(t *testing.T) {
	svc := NewService(&mockLister{}, testLogger())

	out, err := svc.ExportArchiveXLSX(context.Background(), entity.Criteria{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 1, "just the header, no totals line")
}

func TestExportArchiveXLSX_NormalizesDateBounds(t *testing.T) {
	var gotCrit entity.Criteria
	lister := &mockLister{
		ListFunc: func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
			gotCrit = crit
			return nil, 0, nil
		},
	}
	svc := NewService(lister, testLogger())

	from := time.Date(2025, 3, 15, 18, 45, 12, 0, time.FixedZone("CEST", 2*3600))
	_, err := svc.ExportArchiveXLSX(context.Background(), entity.Criteria{FromDate: &from})
	require.NoError(t, err)

	require.NotNil(t, gotCrit.FromDate)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *gotCrit.FromDate)
	require.NotNil(t, gotCrit.ToDate, "an open range closes at today")
	assert.Equal(t, time.UTC, gotCrit.ToDate.Location())
	assert.Zero(t, gotCrit.ToDate.Hour())
}

func TestExportArchiveXLSX_TruncatesLongVendor(t *testing.T) {
	long := strings.Repeat("V", 80)
	lister := &mockLister{
		ListFunc: func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
			return []entity.Document{exportDoc("r1", long, "2025-05-01", "1.00")}, 1, nil
		},
	}
	svc := NewService(lister, testLogger())

	out, err := svc.ExportArchiveXLSX(context.Background(), entity.Criteria{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	vendor := rows[1][2]
	assert.True(t, strings.HasSuffix(vendor, "…"))
	assert.Less(t, len(vendor), 80)
}

func TestExportArchiveXLSX_ListError(t *testing.T) {
	lister := &mockLister{
		ListFunc: func(ctx context.Context, crit entity.Criteria, sort entity.Sort, limit, offset int) ([]entity.Document, int, error) {
			return nil, 0, errors.New("cache closed")
		},
	}
	svc := NewService(lister, testLogger())

	_, err := svc.ExportArchiveXLSX(context.Background(), entity.Criteria{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query archive")
}
