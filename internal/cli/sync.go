package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/history"
	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/model"
	"github.com/roach88/idsync/internal/reconcile"
)

// SyncResult is the output of one sync.
type SyncResult struct {
	Ledger     string            `json:"ledger"`
	Written    bool              `json:"written"`
	BackupPath string            `json:"backup_path,omitempty"`
	Digest     string            `json:"digest"`
	Stats      reconcile.Stats   `json:"stats"`
	Retired    reconcile.Retired `json:"retired"`
	RunID      string            `json:"run_id,omitempty"`
}

// String renders the text output.
func (r *SyncResult) String() string {
	var b strings.Builder
	if r.Written {
		fmt.Fprintf(&b, "Updated %s\n", r.Ledger)
	} else {
		fmt.Fprintf(&b, "%s is up to date\n", r.Ledger)
	}
	s := r.Stats
	fmt.Fprintf(&b, "  entities: %d\n", s.Entities)
	if s.Changed() {
		fmt.Fprintf(&b, "  new: %d entities, %d properties, %d indexes, %d relations\n",
			s.NewEntities, s.NewProperties, s.NewIndexes, s.NewRelations)
		fmt.Fprintf(&b, "  renamed: %d, retired: %d\n", s.Renamed, s.Retired)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(&b, "  backup: %s\n", r.BackupPath)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "  run: %s\n", r.RunID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return command(&cobra.Command{
		Use:   "sync [model-dir]",
		Short: "Assign ids to the model and update the ledger",
		Long: `Read the model files, reconcile them with the ledger and write the
updated ledger. Existing ids are kept, new elements get new ids and removed
elements have their uids retired for good.

The ledger is only rewritten when its content changes; the previous version
is kept as <ledger>.bak.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			res, err := runSync(cmd.Context(), rootOpts, rootOpts.modelDir(args))
			if err != nil {
				return fail(f, "sync failed", err)
			}
			return f.Success(res)
		},
	})
}

// runSync loads the model in modelDir, syncs the ledger and records the
// run when history is configured.
func runSync(ctx context.Context, opts *RootOptions, modelDir string) (*SyncResult, error) {
	logger := opts.logger
	ledgerPath := opts.ledgerPath(modelDir)

	m, err := model.LoadDir(modelDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("model loaded", "dir", modelDir, "entities", len(m.Entities))

	fr, err := reconcile.SyncFile(ledgerPath, m, reconcile.FileOptions{
		StrictChecksum: opts.cfg.StrictChecksum,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	res := &SyncResult{
		Ledger:     ledgerPath,
		Written:    fr.Save.Written,
		BackupPath: fr.Save.BackupPath,
		Digest:     fr.Save.Digest,
		Stats:      fr.Stats,
		Retired:    fr.Retired,
	}

	if opts.cfg.History != "" {
		run, err := recordRun(ctx, opts.cfg.History, res)
		if err != nil {
			// History failures do not fail the sync.
			logger.Warn("could not record sync history", "history", opts.cfg.History, "error", err)
		} else {
			res.RunID = run.RunID
		}
	}
	return res, nil
}

func recordRun(ctx context.Context, path string, res *SyncResult) (history.Run, error) {
	store, err := history.Open(path)
	if err != nil {
		return history.Run{}, err
	}
	defer store.Close()

	s := res.Stats
	return store.RecordRun(ctx, history.Run{
		LedgerPath:  res.Ledger,
		Digest:      res.Digest,
		Written:     res.Written,
		Entities:    s.Entities,
		NewIDs:      s.NewEntities + s.NewProperties + s.NewIndexes + s.NewRelations,
		Renamed:     s.Renamed,
		Retired:     s.Retired,
		ToolVersion: ir.ToolVersion,
	}, retirements(res.Retired))
}

func retirements(r reconcile.Retired) []history.Retirement {
	out := make([]history.Retirement, 0, r.Len())
	add := func(scope history.Scope, uids []int64) {
		for _, uid := range uids {
			out = append(out, history.Retirement{Scope: scope, UID: uid})
		}
	}
	add(history.ScopeEntity, r.Entities)
	add(history.ScopeProperty, r.Properties)
	add(history.ScopeIndex, r.Indexes)
	add(history.ScopeRelation, r.Relations)
	return out
}
