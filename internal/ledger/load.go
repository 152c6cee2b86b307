package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/idsync/internal/ir"
)

// versionHeader is decoded before the full document so a file written by a
// newer, incompatible format is reported as such rather than as malformed.
type versionHeader struct {
	ModelVersion              int `json:"modelVersion"`
	ModelVersionParserMinimum int `json:"modelVersionParserMinimum"`
}

// Load reads and validates the ledger at path.
// Returns nil, nil if the file does not exist (first run).
func Load(path string, opts ...Option) (*ir.Ledger, error) {
	o := buildOptions(opts)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		o.logger.Debug("no ledger yet", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	l, err := Decode(data)
	if err != nil {
		return nil, ir.AttachPath(err, path)
	}

	if err := Validate(l, opts...); err != nil {
		return nil, ir.AttachPath(err, path)
	}

	o.logger.Debug("ledger loaded",
		"path", path,
		"entities", len(l.Entities),
		"model_version", l.ModelVersion,
	)
	return l, nil
}

// Decode parses a serialized ledger without validating its invariants.
func Decode(data []byte) (*ir.Ledger, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ir.Errorf(ir.CodeMalformedLedger, "ledger file is empty")
	}

	var header versionHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, malformed(err)
	}
	if header.ModelVersionParserMinimum > ir.ModelVersionParserSupported {
		return nil, ir.Errorf(ir.CodeIncompatibleVersion,
			"ledger requires parser version %d but this idsync supports up to %d; upgrade idsync",
			header.ModelVersionParserMinimum, ir.ModelVersionParserSupported)
	}

	l := &ir.Ledger{}
	if err := json.Unmarshal(data, l); err != nil {
		return nil, malformed(err)
	}
	normalize(l)
	return l, nil
}

func malformed(err error) *ir.Error {
	e := &ir.Error{Code: ir.CodeMalformedLedger, Message: "ledger is not valid JSON of the expected shape", Err: err}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		e.Message = fmt.Sprintf("ledger is not valid JSON (offset %d); look for leftover VCS conflict markers", syntaxErr.Offset)
	}
	return e
}

// normalize replaces nil slices with empty ones so decoded legacy files and
// freshly built ledgers serialize identically.
func normalize(l *ir.Ledger) {
	if l.Entities == nil {
		l.Entities = []ir.Entity{}
	}
	for i := range l.Entities {
		if l.Entities[i].Properties == nil {
			l.Entities[i].Properties = []ir.Property{}
		}
	}
	if l.RetiredEntityUIDs == nil {
		l.RetiredEntityUIDs = []int64{}
	}
	if l.RetiredIndexUIDs == nil {
		l.RetiredIndexUIDs = []int64{}
	}
	if l.RetiredPropertyUIDs == nil {
		l.RetiredPropertyUIDs = []int64{}
	}
	if l.RetiredRelationUIDs == nil {
		l.RetiredRelationUIDs = []int64{}
	}
}
