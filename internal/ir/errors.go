package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes ledger and reconciliation errors.
type ErrorCode string

const (
	// CodeIncompatibleVersion indicates the ledger requires a newer reader.
	CodeIncompatibleVersion ErrorCode = "INCOMPATIBLE_VERSION"

	// CodeMalformedLedger indicates the file exists but cannot be parsed.
	CodeMalformedLedger ErrorCode = "MALFORMED_LEDGER"

	// CodeDuplicateID indicates two records of one scope share a model id.
	CodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// CodeDuplicateIdentifier indicates a UID is used twice.
	CodeDuplicateIdentifier ErrorCode = "DUPLICATE_IDENTIFIER"

	// CodeLastIDMismatch indicates a lastXxxId uid disagrees with its record.
	CodeLastIDMismatch ErrorCode = "LAST_ID_MISMATCH"

	// CodeIDAboveLast indicates a record id exceeds its scope's lastXxxId.
	CodeIDAboveLast ErrorCode = "ID_ABOVE_LAST"

	// CodeUnknownUID indicates a model element asks for a uid the ledger lacks.
	CodeUnknownUID ErrorCode = "UNKNOWN_UID"

	// CodeDuplicateRequestedUID indicates two model elements ask for one uid.
	CodeDuplicateRequestedUID ErrorCode = "DUPLICATE_REQUESTED_UID"

	// CodeIllegalIdentifier indicates a non-positive or checksum-invalid uid.
	CodeIllegalIdentifier ErrorCode = "ILLEGAL_IDENTIFIER"

	// CodeIllegalState indicates a single-use object was used twice.
	CodeIllegalState ErrorCode = "ILLEGAL_STATE"

	// CodeUnknownTarget indicates a relation targets an entity not in the model.
	CodeUnknownTarget ErrorCode = "UNKNOWN_TARGET"

	// CodeIDExhausted indicates a scope has no model id left to allocate.
	CodeIDExhausted ErrorCode = "ID_EXHAUSTED"
)

// Sentinels for errors.Is. They match any *Error carrying the same code.
var (
	ErrIncompatibleVersion   = &Error{Code: CodeIncompatibleVersion}
	ErrMalformedLedger       = &Error{Code: CodeMalformedLedger}
	ErrDuplicateID           = &Error{Code: CodeDuplicateID}
	ErrDuplicateIdentifier   = &Error{Code: CodeDuplicateIdentifier}
	ErrLastIDMismatch        = &Error{Code: CodeLastIDMismatch}
	ErrIDAboveLast           = &Error{Code: CodeIDAboveLast}
	ErrUnknownUID            = &Error{Code: CodeUnknownUID}
	ErrDuplicateRequestedUID = &Error{Code: CodeDuplicateRequestedUID}
	ErrIllegalIdentifier     = &Error{Code: CodeIllegalIdentifier}
	ErrIllegalState          = &Error{Code: CodeIllegalState}
	ErrUnknownTarget         = &Error{Code: CodeUnknownTarget}
	ErrIDExhausted           = &Error{Code: CodeIDExhausted}
)

// Error is a user-actionable ledger or reconciliation error.
//
// Path names the ledger file. Entity and Element give the model context
// ("Note", "Note.text"), ID and UID the conflicting identifiers.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Entity  string
	Element string
	ID      int32
	UID     int64
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Path != "" {
		ctx = append(ctx, "file="+e.Path)
	}
	if e.Element != "" {
		ctx = append(ctx, "element="+e.Element)
	} else if e.Entity != "" {
		ctx = append(ctx, "entity="+e.Entity)
	}
	if e.ID != 0 {
		ctx = append(ctx, fmt.Sprintf("id=%d", e.ID))
	}
	if e.UID != 0 {
		ctx = append(ctx, fmt.Sprintf("uid=%d", e.UID))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithPath returns a copy of e that names the ledger file.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// Errorf builds an *Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err, or any error it joins or wraps, carries code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}

// AttachPath sets Path on every *Error inside err that has none yet.
// Joined errors are walked recursively.
func AttachPath(err error, path string) error {
	if err == nil || path == "" {
		return err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		out := make([]error, len(errs))
		for i, e := range errs {
			out[i] = AttachPath(e, path)
		}
		return errors.Join(out...)
	}
	var e *Error
	if errors.As(err, &e) && e.Path == "" && err == error(e) {
		return e.WithPath(path)
	}
	return err
}

// InternalError reports that idsync's own output failed validation. It is a
// defect in idsync, not something the user can fix in the model.
type InternalError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: freshly written ledger %s failed validation; please report this as a bug: %v", e.Path, e.Err)
}

// Unwrap returns the validation failure.
func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsInternal reports whether err is or wraps an *InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
