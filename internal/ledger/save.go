package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/idsync/internal/ir"
)

// BackupSuffix is appended to the ledger path for the pre-write copy.
const BackupSuffix = ".bak"

// SaveResult describes what Save did.
type SaveResult struct {
	Path       string `json:"path"`
	BackupPath string `json:"backup_path,omitempty"`
	Written    bool   `json:"written"`
	Digest     string `json:"digest"`
}

// Marshal serializes l deterministically: entities, properties and
// relations sorted by model id, two-space indentation, trailing newline.
// l itself is not modified.
func Marshal(l *ir.Ledger) ([]byte, error) {
	c := l.Clone()
	normalize(c)

	sort.SliceStable(c.Entities, func(i, j int) bool {
		return c.Entities[i].ID.ID < c.Entities[j].ID.ID
	})
	for i := range c.Entities {
		e := &c.Entities[i]
		sort.SliceStable(e.Properties, func(a, b int) bool {
			return e.Properties[a].ID.ID < e.Properties[b].ID.ID
		})
		sort.SliceStable(e.Relations, func(a, b int) bool {
			return e.Relations[a].ID.ID < e.Relations[b].ID.ID
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling ledger: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteError reports a failure to write the ledger or its backup.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Save writes l to path unless the file already holds identical bytes.
//
// When the content changes, the previous file is first copied to
// path+BackupSuffix, then the new content is written to a temp file in the
// same directory, synced and renamed over path.
func Save(l *ir.Ledger, path string, opts ...Option) (*SaveResult, error) {
	o := buildOptions(opts)

	data, err := Marshal(l)
	if err != nil {
		return nil, err
	}
	result := &SaveResult{Path: path, Digest: ir.LedgerDigest(data)}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			o.logger.Debug("ledger unchanged, skipping write", "path", path)
			return result, nil
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, fmt.Errorf("stat ledger %s: %w", path, statErr)
		}
		backup := path + BackupSuffix
		if err := writeAtomic(backup, existing, info.Mode().Perm()); err != nil {
			return nil, &WriteError{Path: backup, Err: err}
		}
		result.BackupPath = backup
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &WriteError{Path: path, Err: err}
		}
	default:
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	if err := writeAtomic(path, data, 0o644); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	result.Written = true

	o.logger.Debug("ledger written",
		"path", path,
		"backup", result.BackupPath,
		"digest", result.Digest,
	)
	return result, nil
}

// writeAtomic writes data to a temp file next to path and renames it into
// place. The temp file is removed on any failure.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

// Verify re-reads the ledger at path and validates it. It is the paranoia
// check run right after Save: any failure means idsync produced a broken
// ledger and is reported as *ir.InternalError.
func Verify(path string, want []byte, opts ...Option) (*ir.Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ir.InternalError{Path: path, Err: err}
	}
	if want != nil && !bytes.Equal(data, want) {
		return nil, &ir.InternalError{Path: path, Err: errors.New("file content differs from what was just written")}
	}

	l, err := Decode(data)
	if err != nil {
		return nil, &ir.InternalError{Path: path, Err: err}
	}
	if err := Validate(l, opts...); err != nil {
		return nil, &ir.InternalError{Path: path, Err: err}
	}
	return l, nil
}
