package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := &Error{Code: CodeDuplicateID, Message: "entity id 3 is used twice", ID: 3}

	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.False(t, errors.Is(err, ErrLastIDMismatch))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, ErrDuplicateID))
}

func TestErrorIsThroughJoin(t *testing.T) {
	joined := errors.Join(
		Errorf(CodeUnknownUID, "no such uid"),
		Errorf(CodeDuplicateRequestedUID, "uid claimed twice"),
	)
	assert.True(t, HasCode(joined, CodeUnknownUID))
	assert.True(t, HasCode(joined, CodeDuplicateRequestedUID))
	assert.False(t, HasCode(joined, CodeIllegalState))
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := &Error{
		Code:    CodeUnknownUID,
		Message: "uid not found in ledger",
		Path:    "ids.json",
		Element: "Note.text",
		UID:     42,
	}
	msg := err.Error()
	assert.Contains(t, msg, "UNKNOWN_UID")
	assert.Contains(t, msg, "file=ids.json")
	assert.Contains(t, msg, "element=Note.text")
	assert.Contains(t, msg, "uid=42")
}

func TestAttachPath(t *testing.T) {
	joined := errors.Join(
		Errorf(CodeDuplicateID, "first"),
		&Error{Code: CodeIDAboveLast, Message: "second", Path: "other.json"},
	)
	err := AttachPath(joined, "ids.json")

	var msgs []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		msgs = append(msgs, e.Error())
	}
	assert.Contains(t, msgs[0], "file=ids.json")
	assert.Contains(t, msgs[1], "file=other.json")
}

func TestInternalErrorIsDistinct(t *testing.T) {
	cause := Errorf(CodeLastIDMismatch, "mismatch")
	err := fmt.Errorf("sync: %w", &InternalError{Path: "ids.json", Err: cause})

	assert.True(t, IsInternal(err))
	assert.False(t, IsInternal(cause))
	assert.Contains(t, err.Error(), "bug")
}
