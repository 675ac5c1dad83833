//go:build paulmach

package source

import (
	"context"
	"fmt"
	"os"

	posm "github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/osm"
)

const Decoder = DecoderPaulmach

func newSource(path string, size int64, procs int, log *zerolog.Logger) Source {
	return &Scanner{path: path, size: size, procs: procs, log: log}
}

// Scanner decodes with github.com/paulmach/osm/osmpbf. Unlike PBF it skips
// filtered types before decoding their blocks, which makes later closure
// passes cheaper.
type Scanner struct {
	path  string
	size  int64
	procs int
	log   *zerolog.Logger
}

func (s *Scanner) Scan(ctx context.Context, filter Filter, fn func(osm.Object) error) error {
	file, err := os.Open(s.path)
	if err != nil {
		return apperr.IO("open", s.path, err)
	}
	defer file.Close()

	scanner := osmpbf.New(ctx, file, s.procs)
	defer scanner.Close()

	scanner.SkipNodes = filter.SkipNodes
	scanner.SkipWays = filter.SkipWays
	scanner.SkipRelations = filter.SkipRelations

	p := newProgress(s.log, s.path, s.size)
	for scanner.Scan() {
		obj, err := convertPaulmach(scanner.Object())
		if err != nil {
			return apperr.Decode("decode", s.path, err)
		}
		if obj == nil {
			continue
		}
		p.seen(obj.ID().Type)
		if err := fn(obj); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if isIOError(err) {
			return apperr.IO("decode", s.path, err)
		}
		return apperr.Decode("decode", s.path, err)
	}
	p.done()
	return nil
}

// convertPaulmach returns nil for object kinds a PBF extract may carry but
// the model ignores (changesets).
func convertPaulmach(o posm.Object) (osm.Object, error) {
	switch o := o.(type) {
	case *posm.Node:
		return &osm.Node{Ref: int64(o.ID), Lat: o.Lat, Lon: o.Lon, Tags: osm.Tags(o.Tags.Map())}, nil

	case *posm.Way:
		nodes := make([]int64, len(o.Nodes))
		for i, wn := range o.Nodes {
			nodes[i] = int64(wn.ID)
		}
		return &osm.Way{Ref: int64(o.ID), Nodes: nodes, Tags: osm.Tags(o.Tags.Map())}, nil

	case *posm.Relation:
		members := make([]osm.Member, len(o.Members))
		for i, m := range o.Members {
			var t osm.Type
			switch m.Type {
			case posm.TypeNode:
				t = osm.TypeNode
			case posm.TypeWay:
				t = osm.TypeWay
			case posm.TypeRelation:
				t = osm.TypeRelation
			default:
				return nil, fmt.Errorf("relation %d: unknown member type %q", o.ID, m.Type)
			}
			members[i] = osm.Member{ID: osm.ObjectID{Type: t, Ref: m.Ref}, Role: m.Role}
		}
		return &osm.Relation{Ref: int64(o.ID), Members: members, Tags: osm.Tags(o.Tags.Map())}, nil

	case *posm.Changeset:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown type %T", o)
}
