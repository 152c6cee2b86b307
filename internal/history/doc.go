// Package history provides a SQLite-backed append-only log of sync runs.
//
// Each recorded run stores the ledger path, the digest of the ledger bytes
// after the run, whether the file was rewritten, and counts of what changed.
// The uids retired by a run are stored alongside it, so a retired uid can be
// traced back to the run that retired it.
//
// # Critical Patterns
//
// Logical ordering
//   - Runs are ordered by seq INTEGER (assigned max+1 inside the insert
//     transaction), never by timestamps
//   - All queries include ORDER BY seq
//
// Append-only
//   - Runs and retirements are never updated or deleted
//   - run_id is a random UUID so logs from different machines can be merged
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package history
