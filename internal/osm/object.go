// Package osm holds the object model shared by the loader and its consumers:
// typed identifiers, tag maps and the Node/Way/Relation variants.
package osm

import (
	"cmp"
	"fmt"
	"strconv"
)

// Type discriminates the three OSM object variants. The numeric order is the
// order used by ObjectID comparison.
type Type uint8

const (
	TypeNode Type = iota + 1
	TypeWay
	TypeRelation
)

func (t Type) String() string {
	switch t {
	case TypeNode:
		return "node"
	case TypeWay:
		return "way"
	case TypeRelation:
		return "relation"
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "node":
		return TypeNode, nil
	case "way":
		return TypeWay, nil
	case "relation":
		return TypeRelation, nil
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// ObjectID identifies an object. Refs are only unique within their Type.
type ObjectID struct {
	Type Type
	Ref  int64
}

func NodeID(ref int64) ObjectID     { return ObjectID{Type: TypeNode, Ref: ref} }
func WayID(ref int64) ObjectID      { return ObjectID{Type: TypeWay, Ref: ref} }
func RelationID(ref int64) ObjectID { return ObjectID{Type: TypeRelation, Ref: ref} }

func (id ObjectID) String() string {
	return id.Type.String() + "/" + strconv.FormatInt(id.Ref, 10)
}

// Compare orders ids by type, then ref.
func Compare(a, b ObjectID) int {
	if c := cmp.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return cmp.Compare(a.Ref, b.Ref)
}

// Tags is the free-form key/value mapping attached to every object.
type Tags map[string]string

// Get reports the value for key and whether it was set at all.
func (t Tags) Get(key string) (string, bool) {
	v, ok := t[key]
	return v, ok
}

func (t Tags) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Object is implemented by *Node, *Way and *Relation only.
type Object interface {
	ID() ObjectID
	TagMap() Tags
	// Refs returns the ids this object depends on, in source order.
	Refs() []ObjectID

	object()
}

type Node struct {
	Ref  int64
	Lat  float64
	Lon  float64
	Tags Tags
}

func (n *Node) ID() ObjectID { return NodeID(n.Ref) }
func (n *Node) TagMap() Tags { return n.Tags }
func (n *Node) Refs() []ObjectID { return nil }
func (*Node) object() {}

type Way struct {
	Ref   int64
	Nodes []int64
	Tags  Tags
}

func (w *Way) ID() ObjectID { return WayID(w.Ref) }
func (w *Way) TagMap() Tags { return w.Tags }
func (*Way) object() {}

func (w *Way) Refs() []ObjectID {
	refs := make([]ObjectID, len(w.Nodes))
	for i, n := range w.Nodes {
		refs[i] = NodeID(n)
	}
	return refs
}

// Member is a typed reference from a relation, annotated with a role.
type Member struct {
	ID   ObjectID
	Role string
}

type Relation struct {
	Ref     int64
	Members []Member
	Tags    Tags
}

func (r *Relation) ID() ObjectID { return RelationID(r.Ref) }
func (r *Relation) TagMap() Tags { return r.Tags }
func (*Relation) object() {}

func (r *Relation) Refs() []ObjectID {
	refs := make([]ObjectID, len(r.Members))
	for i, m := range r.Members {
		refs[i] = m.ID
	}
	return refs
}
