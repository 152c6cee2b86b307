package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListRuns returns the most recent runs in ascending seq order. A
// non-positive limit returns every run. An empty ledgerPath matches all
// ledgers.
func (s *Store) ListRuns(ctx context.Context, ledgerPath string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, run_id, ledger_path, digest, written, entities, new_ids, renamed, retired, tool_version
		FROM (
			SELECT * FROM runs
			WHERE ? = '' OR ledger_path = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, ledgerPath, ledgerPath, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.Seq, &r.RunID, &r.LedgerPath, &r.Digest, &r.Written,
			&r.Entities, &r.NewIDs, &r.Renamed, &r.Retired, &r.ToolVersion,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Retirements returns the uids retired by the run with the given seq,
// ordered by scope then uid.
func (s *Store) Retirements(ctx context.Context, seq int64) ([]Retirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_seq, scope, uid
		FROM retirements
		WHERE run_seq = ?
		ORDER BY scope ASC, uid ASC
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("query retirements: %w", err)
	}
	defer rows.Close()

	out := []Retirement{}
	for rows.Next() {
		var r Retirement
		var scope string
		if err := rows.Scan(&r.RunSeq, &scope, &r.UID); err != nil {
			return nil, fmt.Errorf("scan retirement: %w", err)
		}
		r.Scope = Scope(scope)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retirements: %w", err)
	}
	return out, nil
}

// FindRetirement returns the earliest run that retired uid, or nil when no
// recorded run did.
func (s *Store) FindRetirement(ctx context.Context, uid int64) (*Run, *Retirement, error) {
	var (
		run   Run
		ret   Retirement
		scope string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT r.seq, r.run_id, r.ledger_path, r.digest, r.written, r.entities, r.new_ids,
		       r.renamed, r.retired, r.tool_version, t.scope, t.uid
		FROM retirements t
		JOIN runs r ON r.seq = t.run_seq
		WHERE t.uid = ?
		ORDER BY r.seq ASC
		LIMIT 1
	`, uid).Scan(
		&run.Seq, &run.RunID, &run.LedgerPath, &run.Digest, &run.Written, &run.Entities,
		&run.NewIDs, &run.Renamed, &run.Retired, &run.ToolVersion, &scope, &ret.UID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find retirement of uid %d: %w", uid, err)
	}
	ret.RunSeq = run.Seq
	ret.Scope = Scope(scope)
	return &run, &ret, nil
}
