package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-adel/receiptdesk/internal/entity"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("receipt a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not a receipt"), 0600))

	var submitted []string
	be := &cliBackend{
		SubmitDocumentFunc: func(ctx context.Context, upload entity.Upload) (string, error) {
			submitted = append(submitted, upload.Filename)
			return "doc-" + upload.Filename, nil
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "batch", dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg"}, submitted)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "doc-a.jpg")
	assert.Contains(t, out, "matched 1, succeeded 1, duplicates 0, failed 0")
}

func TestBatchCommand_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("receipt"), 0600))

	be := &cliBackend{
		SubmitDocumentFunc: func(ctx context.Context, upload entity.Upload) (string, error) {
			return "", assert.AnError
		},
	}
	withServices(t, be, store.New(be, testLogger()), nil, nil)

	out, err := execute(t, "batch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "failed 1")
}
