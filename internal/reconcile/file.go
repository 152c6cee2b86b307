package reconcile

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/ledger"
)

// FileResult is the outcome of SyncFile.
type FileResult struct {
	*Result
	Save *ledger.SaveResult
}

// FileOptions configures SyncFile.
type FileOptions struct {
	StrictChecksum bool
	Logger         *slog.Logger

	// Seed makes uid generation deterministic when non-zero. Tests only.
	Seed uint64
}

// SyncFile runs one complete sync against the ledger file at path:
// load and validate, reconcile, validate the result in memory, save with
// backup, then re-read and validate the written file.
//
// Nothing is written when any step before the save fails. A validation
// failure of idsync's own output is returned as *ir.InternalError.
func SyncFile(path string, m *ir.Model, fo FileOptions) (*FileResult, error) {
	logger := fo.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lopts := []ledger.Option{
		ledger.WithStrictChecksum(fo.StrictChecksum),
		ledger.WithLogger(logger),
	}

	prev, err := ledger.Load(path, lopts...)
	if err != nil {
		return nil, err
	}

	ropts := []Option{WithStrictChecksum(fo.StrictChecksum), WithLogger(logger)}
	if fo.Seed != 0 {
		ropts = append(ropts, WithSeed(fo.Seed))
	}

	res, err := NewReconciler(prev, m, ropts...).Sync()
	if err != nil {
		return nil, ir.AttachPath(err, path)
	}

	// Paranoia check before anything touches the disk.
	if err := ledger.Validate(res.Ledger, lopts...); err != nil {
		return nil, &ir.InternalError{Path: path, Err: err}
	}

	data, err := ledger.Marshal(res.Ledger)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", path, err)
	}
	saved, err := ledger.Save(res.Ledger, path, lopts...)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.Verify(path, data, lopts...); err != nil {
		return nil, err
	}

	logger.Info("ledger synced",
		"path", path,
		"written", saved.Written,
		"digest", saved.Digest,
	)
	return &FileResult{Result: res, Save: saved}, nil
}
