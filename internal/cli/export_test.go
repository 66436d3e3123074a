package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/internal/cache"
	"github.com/seyi-adel/receiptdesk/internal/export"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func TestExportCommand(t *testing.T) {
	ar, err := cache.NewArchive(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ar.Close() })
	require.NoError(t, ar.Put(context.Background(), cliDoc("x1")))

	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), ar, export.NewService(ar, testLogger()))

	outPath := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := execute(t, "export", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+outPath)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportCommand_WithoutArchive(t *testing.T) {
	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	_, err := execute(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to export")
}

func TestExportCommand_RejectsBadDate(t *testing.T) {
	ar, err := cache.NewArchive(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ar.Close() })

	be := &cliBackend{}
	withServices(t, be, store.New(be, testLogger()), ar, export.NewService(ar, testLogger()))

	_, err = execute(t, "export", "--to", "June 2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --to date")
}
