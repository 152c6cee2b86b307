// Package ledger loads, validates and saves the idsync ledger file.
//
// The ledger is a human-editable JSON document meant to live in version
// control next to the model it describes. It records every id and uid ever
// assigned plus the archives of retired uids.
//
// # Invariants checked by Validate
//
//   - No two records of a scope share a model id (DUPLICATE_ID)
//   - The record whose id equals the scope's last id carries the same uid
//     (LAST_ID_MISMATCH)
//   - No record id exceeds the scope's last id (ID_ABOVE_LAST)
//   - No uid appears twice across active records, archives and the pool
//     (DUPLICATE_IDENTIFIER)
//
// Scopes are: entities (lastEntityId), each entity's properties
// (lastPropertyId), indexes (lastIndexId) and relations (lastRelationId).
//
// # Saving
//
// Save serializes deterministically and skips the write when the bytes on
// disk are identical. Otherwise the previous file is copied to "<path>.bak"
// and the new content replaces the file through a temp file and rename, so
// an interrupted run never leaves a half-written ledger behind.
package ledger
