package reconcile

import (
	"slices"

	"github.com/roach88/idsync/internal/ir"
)

// Retired holds the uids that went missing between two ledgers, per scope.
type Retired struct {
	Entities   []int64 `json:"entities"`
	Properties []int64 `json:"properties"`
	Indexes    []int64 `json:"indexes"`
	Relations  []int64 `json:"relations"`
}

// Len returns the total number of retired uids.
func (r Retired) Len() int {
	return len(r.Entities) + len(r.Properties) + len(r.Indexes) + len(r.Relations)
}

// Retire returns the uids referenced by prev but not by next, sorted
// ascending within each scope. A nil prev retires nothing.
func Retire(prev, next *ir.Ledger) Retired {
	if prev == nil {
		return Retired{}
	}
	before := collect(prev)
	after := collect(next)

	return Retired{
		Entities:   missing(before.entities, after.entities),
		Properties: missing(before.properties, after.properties),
		Indexes:    missing(before.indexes, after.indexes),
		Relations:  missing(before.relations, after.relations),
	}
}

// AppendTo appends the retired uids to the archives of l. Uids already
// archived are not added twice; nothing is ever removed.
func (r Retired) AppendTo(l *ir.Ledger) {
	l.RetiredEntityUIDs = appendNew(l.RetiredEntityUIDs, r.Entities)
	l.RetiredPropertyUIDs = appendNew(l.RetiredPropertyUIDs, r.Properties)
	l.RetiredIndexUIDs = appendNew(l.RetiredIndexUIDs, r.Indexes)
	l.RetiredRelationUIDs = appendNew(l.RetiredRelationUIDs, r.Relations)
}

type uidSets struct {
	entities, properties, indexes, relations map[int64]struct{}
}

func collect(l *ir.Ledger) uidSets {
	s := uidSets{
		entities:   make(map[int64]struct{}),
		properties: make(map[int64]struct{}),
		indexes:    make(map[int64]struct{}),
		relations:  make(map[int64]struct{}),
	}
	if l == nil {
		return s
	}
	for _, e := range l.Entities {
		s.entities[e.ID.UID] = struct{}{}
		for _, p := range e.Properties {
			s.properties[p.ID.UID] = struct{}{}
			if p.IndexID != nil {
				s.indexes[p.IndexID.UID] = struct{}{}
			}
		}
		for _, rel := range e.Relations {
			s.relations[rel.ID.UID] = struct{}{}
		}
	}
	return s
}

func missing(before, after map[int64]struct{}) []int64 {
	var out []int64
	for uid := range before {
		if _, ok := after[uid]; !ok {
			out = append(out, uid)
		}
	}
	slices.Sort(out)
	return out
}

func appendNew(archive, uids []int64) []int64 {
	if archive == nil {
		archive = []int64{}
	}
	for _, uid := range uids {
		if !slices.Contains(archive, uid) {
			archive = append(archive, uid)
		}
	}
	return archive
}
