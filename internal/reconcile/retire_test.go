package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/idsync/internal/ir"
)

func TestRetireNilPrevious(t *testing.T) {
	assert.Zero(t, Retire(nil, ir.NewLedger()).Len())
}

func TestRetireCollectsMissingUIDsPerScope(t *testing.T) {
	idx := ir.IdUid{ID: 1, UID: 500}
	prev := ir.NewLedger()
	prev.Entities = []ir.Entity{
		{
			ID:   ir.IdUid{ID: 1, UID: 100},
			Name: "Kept",
			Properties: []ir.Property{
				{ID: ir.IdUid{ID: 1, UID: 300}, Name: "id"},
				{ID: ir.IdUid{ID: 2, UID: 302}, Name: "gone", IndexID: &idx},
			},
		},
		{
			ID:         ir.IdUid{ID: 2, UID: 200},
			Name:       "Dropped",
			Properties: []ir.Property{{ID: ir.IdUid{ID: 1, UID: 301}, Name: "id"}},
			Relations:  []ir.Relation{{ID: ir.IdUid{ID: 1, UID: 700}, Name: "links", TargetID: ir.IdUid{ID: 1, UID: 100}}},
		},
	}

	next := ir.NewLedger()
	next.Entities = []ir.Entity{{
		ID:         ir.IdUid{ID: 1, UID: 100},
		Name:       "Kept",
		Properties: []ir.Property{{ID: ir.IdUid{ID: 1, UID: 300}, Name: "id"}},
	}}

	got := Retire(prev, next)
	assert.Equal(t, []int64{200}, got.Entities)
	assert.Equal(t, []int64{301, 302}, got.Properties)
	assert.Equal(t, []int64{500}, got.Indexes)
	assert.Equal(t, []int64{700}, got.Relations)
	assert.Equal(t, 5, got.Len())
}

func TestAppendToSkipsArchivedUIDs(t *testing.T) {
	l := ir.NewLedger()
	l.RetiredEntityUIDs = []int64{9, 3}

	Retired{Entities: []int64{3, 4}, Relations: []int64{8}}.AppendTo(l)
	assert.Equal(t, []int64{9, 3, 4}, l.RetiredEntityUIDs, "existing order kept, nothing removed")
	assert.Equal(t, []int64{8}, l.RetiredRelationUIDs)
	assert.NotNil(t, l.RetiredIndexUIDs)
}
