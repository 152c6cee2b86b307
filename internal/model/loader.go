package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/idsync/internal/ir"
)

// Format is the file format of a model directory.
type Format string

const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// Files lists the model files of one directory.
type Files struct {
	Format Format
	Paths  []string // sorted
}

// FindFiles returns the model files directly inside dir. Subdirectories are
// not searched. Mixing CUE and YAML files is an error.
func FindFiles(dir string) (*Files, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing model directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}

	var cueFiles, yamlFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	slices.Sort(cueFiles)
	slices.Sort(yamlFiles)

	switch {
	case len(cueFiles) > 0 && len(yamlFiles) > 0:
		return nil, &LoadError{
			Code:    ErrCodeMixedFormats,
			Message: fmt.Sprintf("%s contains both CUE and YAML model files; keep one format per directory", dir),
		}
	case len(cueFiles) > 0:
		return &Files{Format: FormatCUE, Paths: cueFiles}, nil
	case len(yamlFiles) > 0:
		return &Files{Format: FormatYAML, Paths: yamlFiles}, nil
	default:
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE or YAML model files found in %s", dir)}
	}
}

// LoadDir reads the model in dir. All problems found are returned joined;
// the model is nil whenever the error is non-nil.
func LoadDir(dir string) (*ir.Model, error) {
	files, err := FindFiles(dir)
	if err != nil {
		return nil, err
	}

	var (
		m    *ir.Model
		errs []error
	)
	switch files.Format {
	case FormatCUE:
		m, errs = loadCUE(dir)
	case FormatYAML:
		m, errs = loadYAML(files.Paths)
	}
	if m != nil {
		errs = append(errs, Check(m)...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// Check reports structural problems the reconciler cannot resolve: missing
// names, names repeated within one scope and relations without a target.
// Names compare the way the reconciler matches them.
func Check(m *ir.Model) []error {
	var errs []error
	entities := make(map[string]bool, len(m.Entities))

	for _, e := range m.Entities {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, &LoadError{Code: ErrCodeMissingName, Message: "entity without a name"})
			continue
		}
		key := ir.NameKey(e.Name)
		if entities[key] {
			errs = append(errs, &LoadError{Code: ErrCodeDuplicateName, Message: fmt.Sprintf("entity %q is declared more than once", e.Name)})
		}
		entities[key] = true

		members := make(map[string]bool, len(e.Properties)+len(e.Relations))
		member := func(kind, name string) {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, &LoadError{Code: ErrCodeMissingName, Message: fmt.Sprintf("%s without a name in entity %q", kind, e.Name)})
				return
			}
			k := ir.NameKey(name)
			if members[k] {
				errs = append(errs, &LoadError{Code: ErrCodeDuplicateName, Message: fmt.Sprintf("%s %q is declared more than once in entity %q", kind, name, e.Name)})
			}
			members[k] = true
		}
		for _, p := range e.Properties {
			member("property", p.Name)
		}
		for _, r := range e.Relations {
			member("relation", r.Name)
			if strings.TrimSpace(r.Target) == "" {
				errs = append(errs, &LoadError{Code: ErrCodeMissingTarget, Message: fmt.Sprintf("relation %q of entity %q has no target", r.Name, e.Name)})
			}
		}
	}
	return errs
}

// parseUID interprets a uid field value. Integers are taken as is (so
// negative values other than -1 reach the reconciler and are rejected
// there); "new" means ir.UIDNew.
func parseUID(s string) (ir.RequestedUID, bool) {
	if strings.EqualFold(strings.TrimSpace(s), "new") {
		return ir.UIDNew, true
	}
	return 0, false
}
