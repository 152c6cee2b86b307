package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/uid"
)

// record is one element of a scope, reduced to what the checks need.
type record struct {
	id      ir.IdUid
	element string
}

// Validate checks the structural invariants of l. All findings are
// collected and returned as one joined error (does not fail-fast).
func Validate(l *ir.Ledger, opts ...Option) error {
	if l == nil {
		return nil
	}
	o := buildOptions(opts)

	var errs []error

	entities := make([]record, len(l.Entities))
	var indexes, relations []record
	for i, e := range l.Entities {
		entities[i] = record{id: e.ID, element: e.Name}

		props := make([]record, len(e.Properties))
		for j, p := range e.Properties {
			element := e.Name + "." + p.Name
			props[j] = record{id: p.ID, element: element}
			if p.IndexID != nil {
				indexes = append(indexes, record{id: *p.IndexID, element: element + " (index)"})
			}
		}
		errs = append(errs, checkScope("property of "+e.Name, props, e.LastPropertyID, e.Name)...)

		for _, r := range e.Relations {
			relations = append(relations, record{id: r.ID, element: e.Name + "." + r.Name})
		}
	}

	errs = append(errs, checkScope("entity", entities, l.LastEntityID, "")...)
	errs = append(errs, checkScope("index", indexes, l.LastIndexID, "")...)
	errs = append(errs, checkScope("relation", relations, l.LastRelationID, "")...)
	errs = append(errs, checkUIDs(l, o.strictChecksum)...)

	if len(errs) > 0 {
		o.logger.Debug("ledger validation failed", "errors", len(errs))
	}
	return errors.Join(errs...)
}

// checkScope verifies one id scope against its last-id counter.
func checkScope(scope string, records []record, last ir.IdUid, entity string) []error {
	var errs []error
	seen := make(map[int32]string, len(records))

	for _, r := range records {
		if r.id.ID <= 0 {
			errs = append(errs, &ir.Error{
				Code:    ir.CodeIllegalIdentifier,
				Message: fmt.Sprintf("%s has no model id assigned", scope),
				Entity:  entity,
				Element: r.element,
				UID:     r.id.UID,
			})
			continue
		}

		if other, dup := seen[r.id.ID]; dup {
			errs = append(errs, &ir.Error{
				Code:    ir.CodeDuplicateID,
				Message: fmt.Sprintf("%s id %d is used by both %q and %q", scope, r.id.ID, other, r.element),
				Entity:  entity,
				Element: r.element,
				ID:      r.id.ID,
			})
			continue
		}
		seen[r.id.ID] = r.element

		if r.id.ID > last.ID {
			errs = append(errs, &ir.Error{
				Code:    ir.CodeIDAboveLast,
				Message: fmt.Sprintf("%s id %d is above the last assigned %s id %s", scope, r.id.ID, scope, last),
				Entity:  entity,
				Element: r.element,
				ID:      r.id.ID,
				UID:     r.id.UID,
			})
			continue
		}

		if r.id.ID == last.ID && r.id.UID != last.UID {
			errs = append(errs, &ir.Error{
				Code:    ir.CodeLastIDMismatch,
				Message: fmt.Sprintf("last %s id %s does not match %s", scope, last, r.id),
				Entity:  entity,
				Element: r.element,
				ID:      r.id.ID,
				UID:     r.id.UID,
			})
		}
	}
	return errs
}

// checkUIDs registers every uid of the ledger with a fresh generator, which
// rejects illegal and duplicate uids.
func checkUIDs(l *ir.Ledger, strict bool) []error {
	var errs []error
	g := uid.New(uid.WithStrictChecksum(strict))

	register := func(u int64, entity, element string) {
		if err := g.RegisterExisting(u); err != nil {
			var e *ir.Error
			if errors.As(err, &e) {
				c := *e
				c.Entity = entity
				c.Element = element
				err = &c
			}
			errs = append(errs, err)
		}
	}

	for _, e := range l.Entities {
		register(e.ID.UID, e.Name, e.Name)
		for _, p := range e.Properties {
			register(p.ID.UID, e.Name, e.Name+"."+p.Name)
			if p.IndexID != nil {
				register(p.IndexID.UID, e.Name, e.Name+"."+p.Name+" (index)")
			}
		}
		for _, r := range e.Relations {
			register(r.ID.UID, e.Name, e.Name+"."+r.Name)
		}
	}

	archives := []struct {
		name string
		uids []int64
	}{
		{"retiredEntityUids", l.RetiredEntityUIDs},
		{"retiredPropertyUids", l.RetiredPropertyUIDs},
		{"retiredIndexUids", l.RetiredIndexUIDs},
		{"retiredRelationUids", l.RetiredRelationUIDs},
		{"newUidPool", l.NewUIDPool},
	}
	for _, a := range archives {
		for _, u := range a.uids {
			register(u, "", a.name)
		}
	}
	return errs
}
