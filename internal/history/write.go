package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordRun appends run and its retirements in one transaction and returns
// the stored run with Seq and RunID filled in. The RunSeq of each
// retirement is ignored and set to the new run's seq.
func (s *Store) RecordRun(ctx context.Context, run Run, retired []Retirement) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	} else if _, err := uuid.Parse(run.RunID); err != nil {
		return Run{}, fmt.Errorf("record run: invalid run id %q: %w", run.RunID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(seq, run_id, ledger_path, digest, written, entities, new_ids, renamed, retired, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Seq,
		run.RunID,
		run.LedgerPath,
		run.Digest,
		run.Written,
		run.Entities,
		run.NewIDs,
		run.Renamed,
		run.Retired,
		run.ToolVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for _, r := range retired {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO retirements (run_seq, scope, uid)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.Seq, string(r.Scope), r.UID)
		if err != nil {
			return Run{}, fmt.Errorf("record retirement of uid %d: %w", r.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}
