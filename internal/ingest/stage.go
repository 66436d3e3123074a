package ingest

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// Stage reads a receipt file into an upload ready for submission. The
// extension and size are checked before the file content is loaded.
func Stage(path, currencyHint string) (entity.Upload, error) {
	var out entity.Upload

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !constants.ExtAllowed(ext) {
		return out, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.Size() > constants.MaxUploadBytes {
		return out, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrInvalidInput, filepath.Base(abs), constants.MaxUploadBytes)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(content)

	out = entity.Upload{
		SourcePath:   abs,
		Filename:     filepath.Base(abs),
		FileExt:      ext,
		FileSize:     int64(len(content)),
		Content:      content,
		ContentHash:  sum[:],
		CurrencyHint: currencyHint,
		StagedAt:     time.Now().UTC(),
	}
	return out, nil
}
