// Package predicate classifies relations as administrative-boundary
// candidates or targets based on their tags.
package predicate

import (
	"slices"

	"github.com/val3rkq/osmbounds/internal/osm"
)

// Predicate selects root objects for the closure loader.
type Predicate func(osm.Object) bool

// Allowlists are the accepted tag values. They are copied on construction.
type Allowlists struct {
	AdminLevels   []string
	BoundaryTypes []string
}

func DefaultAllowlists() Allowlists {
	return Allowlists{
		AdminLevels: []string{"2", "4", "6", "7", "8"},
		BoundaryTypes: []string{
			"administrative",
			"state_border",
			"country_border",
			"state border",
		},
	}
}

type Evaluator struct {
	adminLevels   map[string]struct{}
	boundaryTypes map[string]struct{}
}

func New(a Allowlists) *Evaluator {
	return &Evaluator{
		adminLevels:   toSet(a.AdminLevels),
		boundaryTypes: toSet(a.BoundaryTypes),
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// IsCandidateRelation reports whether obj is a named relation with an
// accepted admin_level.
func (e *Evaluator) IsCandidateRelation(obj osm.Object) bool {
	rel, ok := obj.(*osm.Relation)
	if !ok {
		return false
	}
	if name, _ := rel.Tags.Get("name"); name == "" {
		return false
	}
	level, ok := rel.Tags.Get("admin_level")
	if !ok {
		return false
	}
	_, ok = e.adminLevels[level]
	return ok
}

// IsTargetRelation narrows IsCandidateRelation to accepted boundary types.
func (e *Evaluator) IsTargetRelation(obj osm.Object) bool {
	if !e.IsCandidateRelation(obj) {
		return false
	}
	boundary, ok := obj.TagMap().Get("boundary")
	if !ok {
		return false
	}
	_, ok = e.boundaryTypes[boundary]
	return ok
}

func (e *Evaluator) Candidate() Predicate { return e.IsCandidateRelation }
func (e *Evaluator) Target() Predicate { return e.IsTargetRelation }

// Allowlists returns the configured values, sorted.
func (e *Evaluator) Allowlists() Allowlists {
	return Allowlists{
		AdminLevels:   sortedKeys(e.adminLevels),
		BoundaryTypes: sortedKeys(e.boundaryTypes),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
