package ir

// Version constants for the ledger file format.
const (
	// LedgerFileVersion is written to the top-level "version" field.
	LedgerFileVersion = 1

	// ModelVersion is the format version this build writes.
	ModelVersion = 5

	// ModelVersionParserMinimum is the oldest parser able to read what this
	// build writes.
	ModelVersionParserMinimum = 5

	// ModelVersionParserSupported is the newest format this build can read.
	// Files whose modelVersionParserMinimum is above it are rejected.
	ModelVersionParserSupported = 5

	// ToolVersion is the idsync tool version.
	ToolVersion = "0.3.0"
)
