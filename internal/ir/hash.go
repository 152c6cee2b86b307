package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for ledger digests. Version suffix enables future algorithm
// migration.
const DomainLedger = "idsync/ledger/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// LedgerDigest computes the content digest of a serialized ledger.
// Callers must pass the deterministic serialization so equal ledgers
// produce equal digests.
func LedgerDigest(serialized []byte) string {
	return hashWithDomain(DomainLedger, serialized)
}
