package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/ledger"
	"github.com/roach88/idsync/internal/model"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("DUPLICATE_ID", "ledger is invalid", []string{"a", "b"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_ID", resp.Error.Code)
	assert.Equal(t, "ledger is invalid", resp.Error.Message)
	assert.Len(t, resp.Error.Details, 2)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("ledger is valid"))
	assert.Contains(t, buf.String(), "ledger is valid")
}

func TestOutputFormatter_TextErrorListsDetailLines(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("UNKNOWN_UID", "sync failed", []string{"first problem", "second problem"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNKNOWN_UID]: sync failed")
	assert.Contains(t, buf.String(), "  - first problem\n")
	assert.Contains(t, buf.String(), "  - second problem\n")
}

func TestOutputFormatter_StructuredDetailsAreJSONOnly(t *testing.T) {
	details := map[string]int{"new_entities": 1}

	text := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: text}).Error("E010", "out of date", details))
	assert.Equal(t, "Error [E010]: out of date\n", text.String())

	js := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: js}).Error("E010", "out of date", details))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(js.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"new_entities": float64(1)}, resp.Error.Details)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitInternal, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitInternal, "x", nil))))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{
			name:     "ledger error",
			err:      ir.Errorf(ir.CodeDuplicateID, "dup"),
			wantCode: "DUPLICATE_ID",
			wantExit: ExitFailure,
		},
		{
			name:     "joined ledger errors use the first code",
			err:      errors.Join(ir.Errorf(ir.CodeUnknownUID, "a"), ir.Errorf(ir.CodeUnknownTarget, "b")),
			wantCode: "UNKNOWN_UID",
			wantExit: ExitFailure,
		},
		{
			name:     "internal error",
			err:      &ir.InternalError{Path: "ids.json", Err: ir.Errorf(ir.CodeDuplicateID, "dup")},
			wantCode: ErrCodeInternal,
			wantExit: ExitInternal,
		},
		{
			name:     "model content error",
			err:      &model.LoadError{Code: model.ErrCodeDuplicateName, Message: "dup"},
			wantCode: model.ErrCodeDuplicateName,
			wantExit: ExitFailure,
		},
		{
			name:     "missing model directory",
			err:      &model.LoadError{Code: model.ErrCodeNotFound, Message: "nope"},
			wantCode: model.ErrCodeNotFound,
			wantExit: ExitCommandError,
		},
		{
			name:     "ledger write error",
			err:      fmt.Errorf("sync: %w", &ledger.WriteError{Path: "ids.json", Err: errors.New("disk full")}),
			wantCode: ErrCodeWriteFailed,
			wantExit: ExitCommandError,
		},
		{
			name:     "io error",
			err:      errors.New("disk full"),
			wantCode: ErrCodeGeneric,
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}
