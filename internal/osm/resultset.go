package osm

import (
	"iter"
	"slices"
)

// ResultSet is an ID-keyed collection holding at most one object per id.
// Iteration always follows ObjectID order, independent of insertion order.
type ResultSet struct {
	objects map[ObjectID]Object
	sorted  []ObjectID
}

func NewResultSet() *ResultSet {
	return &ResultSet{objects: make(map[ObjectID]Object)}
}

// Insert adds obj unless its id is already present. The first write wins and
// Insert reports whether obj was stored.
func (rs *ResultSet) Insert(obj Object) bool {
	id := obj.ID()
	if _, ok := rs.objects[id]; ok {
		return false
	}
	rs.objects[id] = obj
	rs.sorted = nil
	return true
}

func (rs *ResultSet) Get(id ObjectID) (Object, bool) {
	obj, ok := rs.objects[id]
	return obj, ok
}

func (rs *ResultSet) Has(id ObjectID) bool {
	_, ok := rs.objects[id]
	return ok
}

func (rs *ResultSet) Len() int { return len(rs.objects) }

// IDs returns every key in ObjectID order. The slice must not be modified.
func (rs *ResultSet) IDs() []ObjectID {
	if rs.sorted == nil {
		ids := make([]ObjectID, 0, len(rs.objects))
		for id := range rs.objects {
			ids = append(ids, id)
		}
		slices.SortFunc(ids, Compare)
		rs.sorted = ids
	}
	return rs.sorted
}

func (rs *ResultSet) All() iter.Seq2[ObjectID, Object] {
	return func(yield func(ObjectID, Object) bool) {
		for _, id := range rs.IDs() {
			if !yield(id, rs.objects[id]) {
				return
			}
		}
	}
}

func (rs *ResultSet) CountByType() map[Type]int {
	out := make(map[Type]int, 3)
	for id := range rs.objects {
		out[id.Type]++
	}
	return out
}
