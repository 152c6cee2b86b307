package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/config"
	"github.com/roach88/idsync/internal/history"
)

// HistoryResult lists recorded sync runs, oldest first.
type HistoryResult struct {
	Runs []HistoryEntry `json:"runs"`
}

// HistoryEntry is one run plus, with --retired, the uids it retired.
type HistoryEntry struct {
	history.Run
	Retirements []history.Retirement `json:"retirements,omitempty"`
}

// String renders the text output.
func (r *HistoryResult) String() string {
	if len(r.Runs) == 0 {
		return "No sync runs recorded"
	}
	var b strings.Builder
	for _, e := range r.Runs {
		state := "unchanged"
		if e.Written {
			state = "written"
		}
		fmt.Fprintf(&b, "#%-4d %s  %-9s entities=%d new=%d renamed=%d retired=%d  %s\n",
			e.Seq, e.RunID, state, e.Entities, e.NewIDs, e.Renamed, e.Retired, e.LedgerPath)
		for _, ret := range e.Retirements {
			fmt.Fprintf(&b, "        retired %-8s %d\n", ret.Scope, ret.UID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type historyOptions struct {
	limit   int
	all     bool
	retired bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := command(&cobra.Command{
		Use:   "history",
		Short: "List recorded sync runs",
		Long: `List the sync runs recorded in the history database (--history or the
history key of idsync.yaml), oldest first. Only runs of the current ledger
are listed unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if rootOpts.cfg.History == "" {
				_ = f.Error(ErrCodeHistory, "history is not configured; pass --history or set history in "+config.DefaultFile, nil)
				return NewExitError(ExitCommandError, "history not configured")
			}

			store, err := history.Open(rootOpts.cfg.History)
			if err != nil {
				_ = f.Error(ErrCodeHistory, err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening history", err)
			}
			defer store.Close()

			ledgerPath := rootOpts.ledgerPath(rootOpts.cfg.Model)
			if opts.all {
				ledgerPath = ""
			}
			runs, err := store.ListRuns(cmd.Context(), ledgerPath, opts.limit)
			if err != nil {
				_ = f.Error(ErrCodeHistory, err.Error(), nil)
				return WrapExitError(ExitCommandError, "reading history", err)
			}

			res := &HistoryResult{Runs: make([]HistoryEntry, 0, len(runs))}
			for _, run := range runs {
				entry := HistoryEntry{Run: run}
				if opts.retired && run.Retired > 0 {
					if entry.Retirements, err = store.Retirements(cmd.Context(), run.Seq); err != nil {
						_ = f.Error(ErrCodeHistory, err.Error(), nil)
						return WrapExitError(ExitCommandError, "reading history", err)
					}
				}
				res.Runs = append(res.Runs, entry)
			}
			return f.Success(res)
		},
	})
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "show at most this many recent runs (0 for all)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include runs of every ledger")
	cmd.Flags().BoolVar(&opts.retired, "retired", false, "list the uids each run retired")
	return cmd
}
