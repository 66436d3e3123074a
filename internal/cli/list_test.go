package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/cache"
	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func TestListCommand_PrintsPage(t *testing.T) {
	be := &cliBackend{
		ListDocumentsFunc: func(ctx context.Context, req api.ListRequest) (entity.Page, error) {
			return entity.Page{Items: []entity.Document{cliDoc("doc-1")}, Total: 1}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Vendor doc-1")
	assert.Contains(t, out, "Showing 1 of 1 receipts")
}

func TestListCommand_ForwardsFilters(t *testing.T) {
	var got api.ListRequest
	be := &cliBackend{
		ListDocumentsFunc: func(ctx context.Context, req api.ListRequest) (entity.Page, error) {
			got = req
			return entity.Page{}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "list",
		"--category", "Dining",
		"--from", "2025-01-01",
		"--status", "APPROVED",
		"--min", "5",
		"--sort", "-amount",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "No receipts found.")

	assert.Equal(t, "Dining", got.Criteria.Category)
	require.NotNil(t, got.Criteria.FromDate)
	assert.Equal(t, "2025-01-01", got.Criteria.FromDate.Format("2006-01-02"))
	require.NotNil(t, got.Criteria.MinAmount)
	assert.Equal(t, 5.0, *got.Criteria.MinAmount)
	assert.Equal(t, entity.SortByAmount, got.Sort.Field)
	assert.True(t, got.Sort.Descending)
}

func TestListCommand_AllPagesFollowsHasMore(t *testing.T) {
	be := &cliBackend{
		ListDocumentsFunc: func(ctx context.Context, req api.ListRequest) (entity.Page, error) {
			if req.Page == 1 {
				return entity.Page{Items: []entity.Document{cliDoc("a")}, Total: 2, HasMore: true}, nil
			}
			return entity.Page{Items: []entity.Document{cliDoc("b")}, Total: 2}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 2 receipts")
}

func TestListCommand_JSONOutput(t *testing.T) {
	be := &cliBackend{
		ListDocumentsFunc: func(ctx context.Context, req api.ListRequest) (entity.Page, error) {
			return entity.Page{Items: []entity.Document{cliDoc("doc-1")}, Total: 1}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "doc-1"`)
	assert.NotContains(t, out, "Showing")
}

func TestListCommand_RejectsBadDate(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "list", "--from", "14/06/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --from date")
}

func TestListCommand_RejectsUnknownStatus(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "list", "--status", "BOGUS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "BOGUS"`)
}

func TestListCommand_OfflineWithoutArchive(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "list", "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive cache is disabled")
}

func TestListCommand_OfflineQueriesArchive(t *testing.T) {
	ar, err := cache.NewArchive(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ar.Close() })
	require.NoError(t, ar.Put(context.Background(), cliDoc("c1"), cliDoc("c2")))

	be := &cliBackend{
		ListDocumentsFunc: func(ctx context.Context, req api.ListRequest) (entity.Page, error) {
			t.Fatal("offline listing must not call the backend")
			return entity.Page{}, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), ar, nil)

	out, err := execute(t, "list", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "c1")
	assert.Contains(t, out, "c2")
	assert.Contains(t, out, "Showing 2 of 2 receipts")
}
