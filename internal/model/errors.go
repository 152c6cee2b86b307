package model

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes for model loading, aligned with the CLI's E-codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No model files found
	ErrCodeLoadFailed  = "E004" // CUE load or YAML decode failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeMixedFormats      = "E201" // CUE and YAML in one directory
	ErrCodeMissingName       = "E202" // Entity, property or relation without a name
	ErrCodeDuplicateName     = "E203" // Two elements share a name in one scope
	ErrCodeInvalidUID        = "E204" // uid is neither an integer nor "new"
	ErrCodeMissingTarget     = "E205" // Relation without a target
	ErrCodeInvalidFieldValue = "E206" // Field has the wrong type
)

// LoadError is a model file problem with its position when known.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func errorAt(code string, pos token.Pos, format string, args ...any) *LoadError {
	e := &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
	if pos.IsValid() {
		e.File = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// fromCUE converts a CUE error into a LoadError at its first position.
func fromCUE(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	var pos token.Pos
	if positions := errors.Positions(first); len(positions) > 0 {
		pos = positions[0]
	}
	return errorAt(code, pos, "%s", first.Error())
}
