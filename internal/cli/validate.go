package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/ledger"
	"github.com/roach88/idsync/internal/model"
	"github.com/roach88/idsync/internal/reconcile"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool   `json:"valid"`
	Ledger       string `json:"ledger"`
	Digest       string `json:"digest"`
	ModelVersion int    `json:"model_version"`
	Entities     int    `json:"entities"`
	Properties   int    `json:"properties"`
	Indexes      int    `json:"indexes"`
	Relations    int    `json:"relations"`
	Retired      int    `json:"retired"`
	InSync       *bool  `json:"in_sync,omitempty"` // set with --model
}

// String renders the text output.
func (r *ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s is valid\n", r.Ledger)
	fmt.Fprintf(&b, "  %d entities, %d properties, %d indexes, %d relations, %d retired uids\n",
		r.Entities, r.Properties, r.Indexes, r.Relations, r.Retired)
	if r.InSync != nil {
		fmt.Fprintf(&b, "  model in sync: %t\n", *r.InSync)
	}
	return strings.TrimRight(b.String(), "\n")
}

type validateOptions struct {
	withModel bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := command(&cobra.Command{
		Use:   "validate [ledger]",
		Short: "Check a ledger for duplicate, missing or inconsistent ids",
		Long: `Validate the ledger file without changing it. Reports every problem found:
duplicate ids or uids, ids above their last-id counter and counters that
disagree with their record. Run it after resolving VCS merge conflicts.

With --model the model is reconciled in memory as well and the command
fails when a sync would change the ledger.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args, cmd)
		},
	})
	cmd.Flags().BoolVar(&opts.withModel, "model", false, "also fail when the configured model is not in sync with the ledger")
	return cmd
}

func runValidate(rootOpts *RootOptions, opts *validateOptions, args []string, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)

	path := rootOpts.ledgerPath(rootOpts.cfg.Model)
	if len(args) > 0 {
		path = args[0]
	}
	lopts := []ledger.Option{
		ledger.WithStrictChecksum(rootOpts.cfg.StrictChecksum),
		ledger.WithLogger(rootOpts.logger),
	}

	l, err := ledger.Load(path, lopts...)
	if err != nil {
		return fail(f, "ledger is invalid", err)
	}
	if l == nil {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("ledger not found: %s", path), nil)
		return NewExitError(ExitCommandError, "ledger not found")
	}
	rootOpts.logger.Debug("ledger loaded", "path", path, "entities", len(l.Entities))

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(f, "reading ledger", err)
	}
	res := summarize(l)
	res.Ledger = path
	res.Digest = ir.LedgerDigest(data)

	if opts.withModel {
		m, err := model.LoadDir(rootOpts.cfg.Model)
		if err != nil {
			return fail(f, "loading model", err)
		}
		r, err := reconcile.Reconcile(l, m,
			reconcile.WithStrictChecksum(rootOpts.cfg.StrictChecksum),
			reconcile.WithLogger(rootOpts.logger))
		if err != nil {
			return fail(f, "model does not reconcile with the ledger", err)
		}
		inSync := !r.Stats.Changed()
		res.InSync = &inSync
		if !inSync {
			_ = f.Error(ErrCodeOutOfDate, fmt.Sprintf("%s is out of date; run idsync sync", path), r.Stats)
			return NewExitError(ExitFailure, "ledger out of date")
		}
	}

	return f.Success(res)
}

func summarize(l *ir.Ledger) *ValidationResult {
	res := &ValidationResult{
		Valid:        true,
		ModelVersion: l.ModelVersion,
		Entities:     len(l.Entities),
		Retired: len(l.RetiredEntityUIDs) + len(l.RetiredPropertyUIDs) +
			len(l.RetiredIndexUIDs) + len(l.RetiredRelationUIDs),
	}
	for _, e := range l.Entities {
		res.Properties += len(e.Properties)
		res.Relations += len(e.Relations)
		for _, p := range e.Properties {
			if p.IndexID != nil {
				res.Indexes++
			}
		}
	}
	return res
}
