package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/idsync/internal/history"
	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/ledger"
)

// ShowResult describes one ledger element, or a retired uid.
type ShowResult struct {
	Kind      string       `json:"kind"` // entity, property, index, relation, retired, pool
	Entity    string       `json:"entity,omitempty"`
	Name      string       `json:"name,omitempty"`
	ID        string       `json:"id,omitempty"`
	IndexID   string       `json:"index_id,omitempty"`
	Target    string       `json:"target,omitempty"`
	Scope     string       `json:"scope,omitempty"` // retired uids
	UID       int64        `json:"uid,omitempty"`
	Members   []ShowResult `json:"members,omitempty"`
	RetiredBy *history.Run `json:"retired_by,omitempty"`
}

// String renders the text output.
func (r *ShowResult) String() string {
	var b strings.Builder
	r.write(&b, "")
	return strings.TrimRight(b.String(), "\n")
}

func (r *ShowResult) write(b *strings.Builder, indent string) {
	switch r.Kind {
	case "retired":
		fmt.Fprintf(b, "%suid %d is retired (%s) and will never be reused\n", indent, r.UID, r.Scope)
		if r.RetiredBy != nil {
			fmt.Fprintf(b, "%s  retired by run %d (%s)\n", indent, r.RetiredBy.Seq, r.RetiredBy.RunID)
		}
		return
	case "pool":
		fmt.Fprintf(b, "%suid %d is reserved in newUidPool\n", indent, r.UID)
		return
	}

	name := r.Name
	if r.Kind != "entity" && r.Entity != "" && indent == "" {
		name = r.Entity + "." + r.Name
	}
	fmt.Fprintf(b, "%s%-9s %-24s %s", indent, r.Kind, name, r.ID)
	if r.IndexID != "" {
		fmt.Fprintf(b, "  index %s", r.IndexID)
	}
	if r.Target != "" {
		fmt.Fprintf(b, "  -> %s", r.Target)
	}
	b.WriteString("\n")
	for i := range r.Members {
		r.Members[i].write(b, indent+"  ")
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return command(&cobra.Command{
		Use:   "show <name|Entity.member|uid>",
		Short: "Show the ids recorded for an entity, member or uid",
		Long: `Look up an element in the ledger.

  idsync show Note             the entity and all of its members
  idsync show Note.text        one property or relation
  idsync show 4858050548069557694
                               whatever uses that uid, including retired uids

Names match case-insensitively. When history is configured, retired uids
name the sync run that retired them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			path := rootOpts.ledgerPath(rootOpts.cfg.Model)

			l, err := ledger.Load(path,
				ledger.WithStrictChecksum(rootOpts.cfg.StrictChecksum),
				ledger.WithLogger(rootOpts.logger))
			if err != nil {
				return fail(f, "ledger is invalid", err)
			}
			if l == nil {
				_ = f.Error(ErrCodeNotFound, fmt.Sprintf("ledger not found: %s", path), nil)
				return NewExitError(ExitCommandError, "ledger not found")
			}

			res := lookup(l, args[0])
			if res == nil {
				_ = f.Error(ErrCodeNotFound, fmt.Sprintf("%q is not in %s", args[0], path), nil)
				return NewExitError(ExitFailure, "not found")
			}
			if res.Kind == "retired" && rootOpts.cfg.History != "" {
				res.RetiredBy = retiredBy(cmd, rootOpts, res.UID)
			}
			return f.Success(res)
		},
	})
}

// lookup resolves a uid, an entity name or an Entity.member name.
func lookup(l *ir.Ledger, query string) *ShowResult {
	if uid, err := strconv.ParseInt(query, 10, 64); err == nil {
		return lookupUID(l, uid)
	}

	entityName, member, dotted := strings.Cut(query, ".")
	e := l.FindEntityByName(entityName, ir.SameName)
	if e == nil {
		return nil
	}
	if !dotted {
		return describeEntity(l, e)
	}
	for _, m := range describeEntity(l, e).Members {
		if ir.SameName(m.Name, member) {
			return &m
		}
	}
	return nil
}

func lookupUID(l *ir.Ledger, uid int64) *ShowResult {
	for i := range l.Entities {
		e := &l.Entities[i]
		if e.ID.UID == uid {
			return describeEntity(l, e)
		}
		for _, m := range describeEntity(l, e).Members {
			if m.UID == uid {
				return &m
			}
			if m.IndexID != "" {
				if idx, err := ir.ParseIdUid(m.IndexID); err == nil && idx.UID == uid {
					return &ShowResult{Kind: "index", Entity: e.Name, Name: m.Name, ID: m.IndexID, UID: uid}
				}
			}
		}
	}

	archives := []struct {
		scope history.Scope
		uids  []int64
	}{
		{history.ScopeEntity, l.RetiredEntityUIDs},
		{history.ScopeProperty, l.RetiredPropertyUIDs},
		{history.ScopeIndex, l.RetiredIndexUIDs},
		{history.ScopeRelation, l.RetiredRelationUIDs},
	}
	for _, a := range archives {
		if slices.Contains(a.uids, uid) {
			return &ShowResult{Kind: "retired", Scope: string(a.scope), UID: uid}
		}
	}
	if slices.Contains(l.NewUIDPool, uid) {
		return &ShowResult{Kind: "pool", UID: uid}
	}
	return nil
}

func describeEntity(l *ir.Ledger, e *ir.Entity) *ShowResult {
	res := &ShowResult{Kind: "entity", Name: e.Name, ID: e.ID.String(), UID: e.ID.UID}
	for _, p := range e.Properties {
		m := ShowResult{Kind: "property", Entity: e.Name, Name: p.Name, ID: p.ID.String(), UID: p.ID.UID, Target: p.RelationTarget}
		if p.IndexID != nil {
			m.IndexID = p.IndexID.String()
		}
		res.Members = append(res.Members, m)
	}
	for _, r := range e.Relations {
		target := r.TargetID.String()
		if t := l.FindEntityByUID(r.TargetID.UID); t != nil {
			target = t.Name
		}
		res.Members = append(res.Members, ShowResult{
			Kind:   "relation",
			Entity: e.Name,
			Name:   r.Name,
			ID:     r.ID.String(),
			UID:    r.ID.UID,
			Target: target,
		})
	}
	return res
}

func retiredBy(cmd *cobra.Command, opts *RootOptions, uid int64) *history.Run {
	store, err := history.Open(opts.cfg.History)
	if err != nil {
		opts.logger.Warn("could not open history", "history", opts.cfg.History, "error", err)
		return nil
	}
	defer store.Close()

	run, _, err := store.FindRetirement(cmd.Context(), uid)
	if err != nil {
		opts.logger.Warn("history lookup failed", "uid", uid, "error", err)
		return nil
	}
	return run
}
