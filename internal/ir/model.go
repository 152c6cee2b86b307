package ir

import "fmt"

// RequestedUID is the UID a model element asks for.
//
//   - UIDAuto (0): no explicit uid, match by name
//   - UIDNew (-1): force a brand-new identity even if the name matches
//   - a positive value: must match an existing ledger record exactly
//
// Any other negative value is illegal.
type RequestedUID int64

const (
	UIDAuto RequestedUID = 0
	UIDNew  RequestedUID = -1
)

// IsExplicit reports whether a concrete uid was requested.
func (r RequestedUID) IsExplicit() bool { return r > 0 }

// Model is the freshly parsed data model handed to the reconciler.
// Entity order is the declaration order and is significant: new ids are
// allocated in this order.
type Model struct {
	Entities []ModelEntity `json:"entities"`
}

// ModelEntity is one entity of the input model. ID and LastPropertyID are
// outputs written back after reconciliation.
type ModelEntity struct {
	Name       string          `json:"name"`
	UID        RequestedUID    `json:"uid,omitempty"`
	Properties []ModelProperty `json:"properties,omitempty"`
	Relations  []ModelRelation `json:"relations,omitempty"`

	ID             IdUid `json:"id,omitzero"`
	LastPropertyID IdUid `json:"lastPropertyId,omitzero"`
}

// ModelProperty is one property of an input entity. Target names the entity
// of a to-one relation property.
type ModelProperty struct {
	Name    string       `json:"name"`
	UID     RequestedUID `json:"uid,omitempty"`
	Indexed bool         `json:"indexed,omitempty"`
	Target  string       `json:"target,omitempty"`

	ID      IdUid  `json:"id,omitzero"`
	IndexID *IdUid `json:"indexId,omitempty"`
}

// ModelRelation is one standalone to-many relation of an input entity.
type ModelRelation struct {
	Name   string       `json:"name"`
	UID    RequestedUID `json:"uid,omitempty"`
	Target string       `json:"target"`

	ID       IdUid `json:"id,omitzero"`
	TargetID IdUid `json:"targetId,omitzero"`
}

// ElementKind distinguishes the members a Handle can address.
type ElementKind uint8

const (
	KindEntity ElementKind = iota
	KindProperty
	KindRelation
)

// String returns the kind name used in messages.
func (k ElementKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindProperty:
		return "property"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Handle addresses one element of a Model by position. Two elements with
// equal names always get distinct handles.
type Handle struct {
	entity int
	kind   ElementKind
	member int
}

// EntityHandle returns the handle of Model.Entities[i].
func EntityHandle(i int) Handle { return Handle{entity: i, kind: KindEntity} }

// PropertyHandle returns the handle of Model.Entities[i].Properties[j].
func PropertyHandle(i, j int) Handle { return Handle{entity: i, kind: KindProperty, member: j} }

// RelationHandle returns the handle of Model.Entities[i].Relations[j].
func RelationHandle(i, j int) Handle { return Handle{entity: i, kind: KindRelation, member: j} }

// Kind returns the kind of element addressed.
func (h Handle) Kind() ElementKind { return h.kind }

// Entity returns the index of the owning entity.
func (h Handle) Entity() int { return h.entity }

// Member returns the property or relation index; 0 for entity handles.
func (h Handle) Member() int { return h.member }

func (h Handle) String() string {
	if h.kind == KindEntity {
		return fmt.Sprintf("entity[%d]", h.entity)
	}
	return fmt.Sprintf("entity[%d].%s[%d]", h.entity, h.kind, h.member)
}
