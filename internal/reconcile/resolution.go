package reconcile

import (
	"github.com/roach88/idsync/internal/ir"
)

// Assignment holds the ids resolved for one model element. Only the fields
// relevant to the element kind are set.
type Assignment struct {
	ID             ir.IdUid
	LastPropertyID ir.IdUid  // entities
	IndexID        *ir.IdUid // indexed properties
	TargetID       ir.IdUid  // relations
	New            bool      // id allocated this run
}

// Resolution maps every model element to its resolved ids.
type Resolution map[ir.Handle]Assignment

// Apply writes the resolved ids back onto the model elements.
// Handles that do not address an element of m are ignored.
func (r Resolution) Apply(m *ir.Model) {
	for h, a := range r {
		i := h.Entity()
		if i < 0 || i >= len(m.Entities) {
			continue
		}
		e := &m.Entities[i]

		switch h.Kind() {
		case ir.KindEntity:
			e.ID = a.ID
			e.LastPropertyID = a.LastPropertyID
		case ir.KindProperty:
			if j := h.Member(); j >= 0 && j < len(e.Properties) {
				e.Properties[j].ID = a.ID
				e.Properties[j].IndexID = cloneIdUid(a.IndexID)
			}
		case ir.KindRelation:
			if j := h.Member(); j >= 0 && j < len(e.Relations) {
				e.Relations[j].ID = a.ID
				e.Relations[j].TargetID = a.TargetID
			}
		}
	}
}

// Stats counts what a reconciliation changed.
type Stats struct {
	Entities      int `json:"entities"`
	NewEntities   int `json:"new_entities"`
	NewProperties int `json:"new_properties"`
	NewIndexes    int `json:"new_indexes"`
	NewRelations  int `json:"new_relations"`
	Renamed       int `json:"renamed"`
	Retired       int `json:"retired"`
}

// Changed reports whether any id was allocated, renamed or retired.
func (s Stats) Changed() bool {
	return s.NewEntities+s.NewProperties+s.NewIndexes+s.NewRelations+s.Renamed+s.Retired > 0
}

func cloneIdUid(v *ir.IdUid) *ir.IdUid {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
