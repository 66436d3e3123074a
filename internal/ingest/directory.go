package ingest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// IngestDirectory walks root, skips hidden entries if requested, and
// stages and submits each allowed file. Returns per-file results plus
// aggregate stats. Submission failures are recorded per file; the walk
// keeps going.
func IngestDirectory(ctx context.Context, root, currencyHint string, skipHidden bool, submit SubmitFunc) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		if err := ctx.Err(); err != nil {
			return err
		}

		upload, err := Stage(path, currencyHint)
		if err != nil {
			results = append(results, Result{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		outcome, err := submit(ctx, upload)
		if err != nil {
			results = append(results, Result{
				SourcePath: path,
				HashHex:    hex.EncodeToString(upload.ContentHash),
				Err:        err.Error(),
			})
			stats.Failed++
			return nil
		}

		results = append(results, Result{
			SourcePath:   path,
			DocumentID:   outcome.DocumentID,
			Phase:        outcome.Phase,
			Deduplicated: outcome.Duplicate,
			HashHex:      hex.EncodeToString(upload.ContentHash),
		})
		stats.Succeeded++
		if outcome.Duplicate {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
