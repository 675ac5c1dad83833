// Package closure selects root relations from a source and resolves every
// object they transitively reference.
//
// Members are referenced by id and may appear anywhere in the stream, so
// resolution is done in passes: the first pass selects roots, and every pass
// captures wanted objects it meets, including ones first wanted earlier in
// the same pass. Another pass runs only while the previous one discovered new
// wanted ids; ids still wanted after a pass that discovered nothing are not in
// the source and are dropped.
package closure

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/metrics"
	"github.com/val3rkq/osmbounds/internal/osm"
	"github.com/val3rkq/osmbounds/internal/predicate"
	"github.com/val3rkq/osmbounds/internal/source"
)

type Loader struct {
	Source  source.Source
	Logger  *zerolog.Logger
	Metrics *metrics.Provider
	// MaxPasses bounds resolution depth; 0 means run until closed.
	MaxPasses int
}

// Result is the outcome of Load beyond the result set itself.
type Result struct {
	Passes    int
	Roots     int
	Dangling  int
	Truncated bool
}

// LoadClosure runs an unbounded Loader without logging or metrics.
func LoadClosure(ctx context.Context, src source.Source, pred predicate.Predicate) (*osm.ResultSet, error) {
	rs, _, err := (&Loader{Source: src}).Load(ctx, pred)
	return rs, err
}

type state struct {
	rs     *osm.ResultSet
	wanted map[osm.ObjectID]struct{}
	added  int
	roots  int
}

// want queues the references of obj that are not resolved yet.
func (s *state) want(obj osm.Object) {
	for _, ref := range obj.Refs() {
		if s.rs.Has(ref) {
			continue
		}
		if _, ok := s.wanted[ref]; ok {
			continue
		}
		s.wanted[ref] = struct{}{}
		s.added++
	}
}

func (s *state) filter() source.Filter {
	var pending [4]bool
	for id := range s.wanted {
		pending[id.Type] = true
	}
	return source.Filter{
		SkipNodes:     !pending[osm.TypeNode],
		SkipWays:      !pending[osm.TypeWay],
		SkipRelations: !pending[osm.TypeRelation],
	}
}

func (l *Loader) Load(ctx context.Context, pred predicate.Predicate) (*osm.ResultSet, Result, error) {
	log := l.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	st := &state{rs: osm.NewResultSet(), wanted: make(map[osm.ObjectID]struct{})}
	var res Result
	started := time.Now()

	for pass := 1; ; pass++ {
		first := pass == 1
		st.added = 0
		filter := source.Filter{}
		if !first {
			filter = st.filter()
		}
		log.Info().
			Int("pass", pass).
			Int("pending", len(st.wanted)).
			Bool("skip_nodes", filter.SkipNodes).
			Bool("skip_ways", filter.SkipWays).
			Bool("skip_relations", filter.SkipRelations).
			Msg("closure pass")

		err := l.Source.Scan(ctx, filter, func(obj osm.Object) error {
			id := obj.ID()
			l.Metrics.ObserveScanned(id.Type)
			if st.rs.Has(id) {
				return nil
			}
			_, wanted := st.wanted[id]
			root := first && pred(obj)
			if !wanted && !root {
				return nil
			}
			if root {
				st.roots++
			}
			st.rs.Insert(obj)
			delete(st.wanted, id)
			st.want(obj)
			return nil
		})
		if err != nil {
			return nil, res, fmt.Errorf("closure pass %d: %w", pass, err)
		}
		l.Metrics.ObservePass()
		res.Passes = pass

		if st.added == 0 || len(st.wanted) == 0 {
			break
		}
		if l.MaxPasses > 0 && pass >= l.MaxPasses {
			res.Truncated = true
			log.Warn().
				Int("max_passes", l.MaxPasses).
				Int("unresolved", len(st.wanted)).
				Msg("closure stopped at pass limit")
			break
		}
	}

	res.Roots = st.roots
	res.Dangling = len(st.wanted)
	if res.Dangling > 0 && !res.Truncated {
		log.Debug().Int("dangling", res.Dangling).Msg("references not present in source")
	}
	l.Metrics.ObserveClosure(st.rs, res.Dangling)

	counts := st.rs.CountByType()
	log.Info().
		Int("roots", res.Roots).
		Int("nodes", counts[osm.TypeNode]).
		Int("ways", counts[osm.TypeWay]).
		Int("relations", counts[osm.TypeRelation]).
		Int("dangling", res.Dangling).
		Int("passes", res.Passes).
		Dur("elapsed", time.Since(started)).
		Msg("closure loaded")
	return st.rs, res, nil
}
