// Package uid creates and verifies the 64-bit UIDs idsync assigns to model
// elements.
//
// A Generator tracks every UID seen during one run: the active ids of the
// loaded ledger, its retirement archives and everything minted so far.
// RegisterExisting refuses a UID that is already present, which is how a
// ledger left with an unresolved VCS merge is caught before any id is reused.
//
// # UID layout
//
// Created UIDs are positive 63-bit values whose lowest byte carries a
// checksum of the upper 56 bits (the low byte of a murmur3 32-bit hash).
// Older ledgers were written with this layout. Verification only requires
// uid > 0 unless strict mode is enabled, because ledgers produced by other
// tools never carried the checksum.
package uid
