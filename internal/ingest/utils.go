package ingest

import (
	"path/filepath"
	"strings"

	"github.com/seyi-adel/receiptdesk/constants"
)

// AllowedExt checks if a file extension is in the allowed upload set.
func AllowedExt(ext string) bool {
	return constants.ExtAllowed(constants.NormalizeExt(ext))
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
