package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/ledger"
	"github.com/roach88/idsync/internal/model"
)

// Error code constants for failures that carry no ir or model code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Config file or flag error
	ErrCodeHistory     = "E009" // History database error
	ErrCodeOutOfDate   = "E010" // Ledger does not match the model
	ErrCodeInternal    = "INTERNAL"
)

// leaves flattens joined errors into their individual parts.
func leaves(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, leaves(e)...)
		}
		return out
	}
	return []error{err}
}

// classify picks the reported code and exit code for err. The first
// coded leaf decides the code.
func classify(err error) (code string, exit int) {
	if ir.IsInternal(err) {
		return ErrCodeInternal, ExitInternal
	}
	for _, leaf := range leaves(err) {
		var irErr *ir.Error
		if errors.As(leaf, &irErr) {
			return string(irErr.Code), ExitFailure
		}
		var loadErr *model.LoadError
		if errors.As(leaf, &loadErr) {
			exit := ExitFailure
			switch loadErr.Code {
			case model.ErrCodeNotFound, model.ErrCodeScanError, model.ErrCodeNoFiles:
				exit = ExitCommandError
			}
			return loadErr.Code, exit
		}
		var writeErr *ledger.WriteError
		if errors.As(leaf, &writeErr) {
			return ErrCodeWriteFailed, ExitCommandError
		}
	}
	return ErrCodeGeneric, ExitCommandError
}

// fail reports err through the formatter and returns the matching
// ExitError. Every leaf of a joined error is listed as a detail.
func fail(f *OutputFormatter, message string, err error) error {
	code, exit := classify(err)
	var details []string
	for _, leaf := range leaves(err) {
		details = append(details, leaf.Error())
	}
	_ = f.Error(code, message, details)
	return WrapExitError(exit, message, err)
}

// command applies the settings shared by every subcommand.
func command(cmd *cobra.Command) *cobra.Command {
	cmd.SilenceUsage = true  // Don't print usage on errors
	cmd.SilenceErrors = true // Don't print errors - we handle our own error output
	return cmd
}
