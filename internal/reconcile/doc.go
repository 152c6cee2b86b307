// Package reconcile matches a freshly parsed model against the ledger and
// produces the next ledger.
//
// Every entity, property, index and relation of the model either keeps the
// id it had in the previous ledger or receives a new one. Matching uses the
// explicit uid when the model requests one and the case-insensitive name
// otherwise; uid -1 forces a brand-new identity.
//
// ALGORITHM:
//
// Pass 1 (entities and properties, in model order):
//  1. Resolve the entity's prior record by uid or by name
//  2. Start lastPropertyId from the prior record (zero when new or forced)
//  3. Resolve each property, allocate index ids for indexed properties
//  4. Resolve the entity id
//
// Pass 2 (relations, after every entity id is known):
//  5. Resolve to-many relations and their target entity ids
//  6. Check to-one property targets
//
// Then: sort entities by id, compute retired uids (previous minus next) and
// append them to the archives carried over from the previous ledger.
//
// CRITICAL PATTERNS:
//
// Ids are never reused: counters only grow and every uid ever seen (active,
// retired or pooled) is registered with the generator before anything is
// minted.
//
// All or nothing: errors from every element are collected and returned as
// one joined error. No ledger is produced on failure.
//
// Positional identity: results are keyed by ir.Handle, never by name, so two
// elements with equal names cannot collide.
package reconcile
