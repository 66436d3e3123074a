package ingest

import (
	"context"

	"github.com/seyi-adel/receiptdesk/constants"
	"github.com/seyi-adel/receiptdesk/internal/entity"
)

// Outcome is what a submission reached once tracking finished.
type Outcome struct {
	DocumentID string
	Phase      constants.JobPhase
	Duplicate  bool
}

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath   string
	DocumentID   string
	Phase        constants.JobPhase
	Deduplicated bool
	HashHex      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// SubmitFunc runs one staged upload through to a terminal phase. The
// caller wires it to the document store; ingest itself never talks to
// the backend.
type SubmitFunc func(ctx context.Context, upload entity.Upload) (Outcome, error)
