package closure

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/metrics"
	"github.com/val3rkq/osmbounds/internal/osm"
	"github.com/val3rkq/osmbounds/internal/pbftest"
	"github.com/val3rkq/osmbounds/internal/predicate"
	"github.com/val3rkq/osmbounds/internal/source"
)

func boundary(ref int64, members ...osm.Member) *osm.Relation {
	return &osm.Relation{
		Ref:     ref,
		Members: members,
		Tags:    osm.Tags{"name": "B", "admin_level": "4", "boundary": "administrative"},
	}
}

func member(id osm.ObjectID, role string) osm.Member {
	return osm.Member{ID: id, Role: role}
}

// nested builds the usual nodes, ways, relations stream where the root
// relation comes last and reaches n102 only through a plain sub-relation.
func nested() *source.Memory {
	return source.NewMemory(
		&osm.Node{Ref: 100},
		&osm.Node{Ref: 101},
		&osm.Node{Ref: 102},
		&osm.Node{Ref: 103},
		&osm.Way{Ref: 10, Nodes: []int64{100, 101}},
		&osm.Way{Ref: 11, Nodes: []int64{102}},
		&osm.Way{Ref: 12, Nodes: []int64{103}},
		&osm.Relation{Ref: 2, Members: []osm.Member{member(osm.WayID(11), "outer")}},
		boundary(1, member(osm.WayID(10), "outer"), member(osm.RelationID(2), "subarea")),
	)
}

func target() predicate.Predicate {
	return predicate.New(predicate.DefaultAllowlists()).Target()
}

func TestLoad_TransitiveClosure(t *testing.T) {
	src := nested()
	rs, res, err := (&Loader{Source: src}).Load(context.Background(), target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []osm.ObjectID{
		osm.NodeID(100), osm.NodeID(101), osm.NodeID(102),
		osm.WayID(10), osm.WayID(11),
		osm.RelationID(1), osm.RelationID(2),
	}
	if !slices.Equal(rs.IDs(), want) {
		t.Fatalf("ids = %v, want %v", rs.IDs(), want)
	}
	if res.Roots != 1 || res.Dangling != 0 || res.Truncated {
		t.Fatalf("result = %+v", res)
	}
	if res.Passes != 4 || src.Passes != 4 {
		t.Fatalf("passes = %d (source saw %d), want 4", res.Passes, src.Passes)
	}
}

func TestLoad_EveryExistingMemberPresent(t *testing.T) {
	src := nested()
	rs, err := LoadClosure(context.Background(), src, target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	exists := map[osm.ObjectID]bool{}
	for _, o := range src.Objects {
		exists[o.ID()] = true
	}
	for _, obj := range rs.All() {
		for _, ref := range obj.Refs() {
			if exists[ref] && !rs.Has(ref) {
				t.Fatalf("%v references %v which exists but is missing", obj.ID(), ref)
			}
		}
	}
}

func TestLoad_DanglingMemberOmitted(t *testing.T) {
	src := source.NewMemory(
		&osm.Way{Ref: 5, Nodes: []int64{1}},
		boundary(1, member(osm.WayID(404), "outer"), member(osm.WayID(5), "outer")),
	)
	rs, res, err := (&Loader{Source: src}).Load(context.Background(), target())
	if err != nil {
		t.Fatalf("dangling references must not fail: %v", err)
	}
	if !rs.Has(osm.RelationID(1)) || !rs.Has(osm.WayID(5)) {
		t.Fatalf("ids = %v", rs.IDs())
	}
	if rs.Has(osm.WayID(404)) {
		t.Fatalf("dangling way must be omitted")
	}
	// way/404 and node/1 are both absent from the source
	if res.Dangling != 2 {
		t.Fatalf("dangling = %d, want 2", res.Dangling)
	}
}

func TestLoad_Deterministic(t *testing.T) {
	a, err := LoadClosure(context.Background(), nested(), target())
	if err != nil {
		t.Fatalf("load a: %v", err)
	}
	b, err := LoadClosure(context.Background(), nested(), target())
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	if !slices.Equal(a.IDs(), b.IDs()) {
		t.Fatalf("key sets differ: %v vs %v", a.IDs(), b.IDs())
	}
}

func TestLoad_DuplicateObjectsFirstWins(t *testing.T) {
	src := source.NewMemory(
		&osm.Way{Ref: 5, Tags: osm.Tags{"v": "1"}},
		&osm.Way{Ref: 5, Tags: osm.Tags{"v": "2"}},
		boundary(1, member(osm.WayID(5), "outer")),
	)
	rs, err := LoadClosure(context.Background(), src, target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	w, _ := rs.Get(osm.WayID(5))
	if v, _ := w.TagMap().Get("v"); v != "1" {
		t.Fatalf("v = %q, want first occurrence", v)
	}
}

func TestLoad_CyclicRelationsTerminate(t *testing.T) {
	src := source.NewMemory(
		&osm.Relation{Ref: 3, Members: []osm.Member{member(osm.RelationID(1), "")}},
		boundary(1, member(osm.RelationID(3), "subarea")),
		boundary(2, member(osm.RelationID(1), "subarea")),
	)
	rs, res, err := (&Loader{Source: src}).Load(context.Background(), target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rs.Len() != 3 || res.Roots != 2 {
		t.Fatalf("ids = %v, result = %+v", rs.IDs(), res)
	}
}

func TestLoad_NoMatches(t *testing.T) {
	src := source.NewMemory(
		&osm.Relation{Ref: 1, Tags: osm.Tags{"name": "X", "admin_level": "10"}},
		&osm.Way{Ref: 1},
	)
	rs, res, err := (&Loader{Source: src}).Load(context.Background(), target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rs.Len() != 0 || res.Passes != 1 {
		t.Fatalf("len = %d, passes = %d", rs.Len(), res.Passes)
	}
}

func TestLoad_MaxPassesTruncates(t *testing.T) {
	rs, res, err := (&Loader{Source: nested(), MaxPasses: 2}).Load(context.Background(), target())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Truncated || res.Passes != 2 {
		t.Fatalf("result = %+v", res)
	}
	want := []osm.ObjectID{osm.WayID(10), osm.RelationID(1), osm.RelationID(2)}
	if !slices.Equal(rs.IDs(), want) {
		t.Fatalf("ids = %v, want %v", rs.IDs(), want)
	}
}

type recordingSource struct {
	inner   source.Source
	filters []source.Filter
}

func (r *recordingSource) Scan(ctx context.Context, f source.Filter, fn func(osm.Object) error) error {
	r.filters = append(r.filters, f)
	return r.inner.Scan(ctx, f, fn)
}

func TestLoad_LaterPassesSkipResolvedTypes(t *testing.T) {
	src := &recordingSource{inner: nested()}
	if _, err := LoadClosure(context.Background(), src, target()); err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []source.Filter{
		{},
		{SkipNodes: true},
		{SkipRelations: true},
		{SkipWays: true, SkipRelations: true},
	}
	if !slices.Equal(src.filters, want) {
		t.Fatalf("filters = %+v, want %+v", src.filters, want)
	}
}

type failingSource struct{ err error }

func (f failingSource) Scan(context.Context, source.Filter, func(osm.Object) error) error {
	return f.err
}

func TestLoad_PropagatesSourceErrors(t *testing.T) {
	_, err := LoadClosure(context.Background(), failingSource{err: apperr.Decode("decode", "x.pbf", errors.New("bad blob"))}, target())
	if !errors.Is(err, apperr.ErrDecode) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestLoad_ReportsMetrics(t *testing.T) {
	m := metrics.New("test")
	if _, _, err := (&Loader{Source: nested(), Metrics: m}).Load(context.Background(), target()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := testutil.ToFloat64(m.Passes); got != 4 {
		t.Fatalf("passes = %v", got)
	}
	if got := testutil.ToFloat64(m.ClosureObjects.WithLabelValues("node")); got != 3 {
		t.Fatalf("closure nodes = %v", got)
	}
}

func TestLoad_PBFFixture(t *testing.T) {
	src, err := source.Open(source.Options{Path: pbftest.Write(t), Procs: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	eval := predicate.New(predicate.DefaultAllowlists())

	rs, res, err := (&Loader{Source: src}).Load(context.Background(), eval.Candidate())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []osm.ObjectID{osm.NodeID(1), osm.NodeID(2), osm.WayID(10), osm.RelationID(5)}
	if !slices.Equal(rs.IDs(), want) {
		t.Fatalf("ids = %v, want %v", rs.IDs(), want)
	}
	if res.Roots != 1 || res.Dangling != 1 || res.Passes != 3 {
		t.Fatalf("result = %+v", res)
	}
}
