package ir

// Note texts written to every ledger file. They are informational only and
// ignored on read.
const (
	Note1 = "KEEP THIS FILE! Check it into a version control system (VCS) like git."
	Note2 = "idsync manages crucial IDs for your model. Never reuse or edit them by hand unless you know what you are doing."
	Note3 = "If you have VCS merge conflicts, resolve them so every id and uid stays unique, then run idsync validate."
)

// Ledger is the persisted record of every identifier assigned to a model.
// Field order matches the serialized key order.
type Ledger struct {
	Note1                     string   `json:"_note1"`
	Note2                     string   `json:"_note2"`
	Note3                     string   `json:"_note3"`
	Entities                  []Entity `json:"entities"`
	LastEntityID              IdUid    `json:"lastEntityId"`
	LastIndexID               IdUid    `json:"lastIndexId"`
	LastRelationID            IdUid    `json:"lastRelationId"`
	LastSequenceID            IdUid    `json:"lastSequenceId"`
	ModelVersion              int      `json:"modelVersion"`
	ModelVersionParserMinimum int      `json:"modelVersionParserMinimum"`
	NewUIDPool                []int64  `json:"newUidPool,omitempty"`
	RetiredEntityUIDs         []int64  `json:"retiredEntityUids"`
	RetiredIndexUIDs          []int64  `json:"retiredIndexUids"`
	RetiredPropertyUIDs       []int64  `json:"retiredPropertyUids"`
	RetiredRelationUIDs       []int64  `json:"retiredRelationUids"`
	Version                   int      `json:"version"`
}

// NewLedger returns an empty ledger stamped with the current format versions.
func NewLedger() *Ledger {
	return &Ledger{
		Note1:                     Note1,
		Note2:                     Note2,
		Note3:                     Note3,
		Entities:                  []Entity{},
		ModelVersion:              ModelVersion,
		ModelVersionParserMinimum: ModelVersionParserMinimum,
		RetiredEntityUIDs:         []int64{},
		RetiredIndexUIDs:          []int64{},
		RetiredPropertyUIDs:       []int64{},
		RetiredRelationUIDs:       []int64{},
		Version:                   LedgerFileVersion,
	}
}

// Entity is the ledger record of one entity.
type Entity struct {
	ID             IdUid      `json:"id"`
	LastPropertyID IdUid      `json:"lastPropertyId"`
	Name           string     `json:"name"`
	Properties     []Property `json:"properties"`
	Relations      []Relation `json:"relations,omitempty"` // absent in legacy files
}

// Property is the ledger record of one entity property.
type Property struct {
	ID             IdUid  `json:"id"`
	Name           string `json:"name"`
	IndexID        *IdUid `json:"indexId,omitempty"`        // only for indexed properties
	RelationTarget string `json:"relationTarget,omitempty"` // to-one target entity name
}

// Relation is the ledger record of one standalone (to-many) relation.
type Relation struct {
	ID       IdUid  `json:"id"`
	Name     string `json:"name"`
	TargetID IdUid  `json:"targetId,omitzero"`
}

// FindEntityByUID returns the entity with the given UID, or nil.
func (l *Ledger) FindEntityByUID(uid int64) *Entity {
	for i := range l.Entities {
		if l.Entities[i].ID.UID == uid {
			return &l.Entities[i]
		}
	}
	return nil
}

// FindEntityByName returns the first entity whose name matches under
// the given equality, or nil.
func (l *Ledger) FindEntityByName(name string, eq func(a, b string) bool) *Entity {
	for i := range l.Entities {
		if eq(l.Entities[i].Name, name) {
			return &l.Entities[i]
		}
	}
	return nil
}

// FindPropertyByUID returns the property with the given UID, or nil.
func (e *Entity) FindPropertyByUID(uid int64) *Property {
	for i := range e.Properties {
		if e.Properties[i].ID.UID == uid {
			return &e.Properties[i]
		}
	}
	return nil
}

// FindRelationByUID returns the relation with the given UID, or nil.
func (e *Entity) FindRelationByUID(uid int64) *Relation {
	for i := range e.Relations {
		if e.Relations[i].ID.UID == uid {
			return &e.Relations[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	c := *l
	c.Entities = make([]Entity, len(l.Entities))
	for i, e := range l.Entities {
		c.Entities[i] = e.clone()
	}
	c.NewUIDPool = cloneInts(l.NewUIDPool)
	c.RetiredEntityUIDs = cloneInts(l.RetiredEntityUIDs)
	c.RetiredIndexUIDs = cloneInts(l.RetiredIndexUIDs)
	c.RetiredPropertyUIDs = cloneInts(l.RetiredPropertyUIDs)
	c.RetiredRelationUIDs = cloneInts(l.RetiredRelationUIDs)
	return &c
}

func (e Entity) clone() Entity {
	c := e
	c.Properties = make([]Property, len(e.Properties))
	for i, p := range e.Properties {
		if p.IndexID != nil {
			idx := *p.IndexID
			p.IndexID = &idx
		}
		c.Properties[i] = p
	}
	if e.Relations != nil {
		c.Relations = append([]Relation(nil), e.Relations...)
	}
	return c
}

func cloneInts(s []int64) []int64 {
	if s == nil {
		return nil
	}
	return append([]int64{}, s...)
}
