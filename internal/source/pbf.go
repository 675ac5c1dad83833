//go:build !paulmach

package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/qedus/osmpbf"
	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/osm"
)

const Decoder = DecoderQedus

func newSource(path string, size int64, procs int, log *zerolog.Logger) Source {
	return &PBF{path: path, size: size, procs: procs, log: log}
}

// PBF decodes with github.com/qedus/osmpbf.
type PBF struct {
	path  string
	size  int64
	procs int
	log   *zerolog.Logger
}

func (s *PBF) Scan(ctx context.Context, filter Filter, fn func(osm.Object) error) error {
	file, err := os.Open(s.path)
	if err != nil {
		return apperr.IO("open", s.path, err)
	}
	defer file.Close()

	decoder := osmpbf.NewDecoder(file)

	// use more memory from the start, it is faster
	decoder.SetBufferSize(osmpbf.MaxBlobSize)

	if err := decoder.Start(s.procs); err != nil {
		return s.classify("start decoder", err)
	}

	// The decoder cannot be stopped: returning before io.EOF leaves its
	// workers blocked on the closed file. An early return is only expected
	// on a run that is about to exit.
	p := newProgress(s.log, s.path, s.size)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := decoder.Decode()
		if err == io.EOF {
			break
		} else if err != nil {
			return s.classify("decode", err)
		}

		obj, err := convertQedus(v)
		if err != nil {
			return apperr.Decode("decode", s.path, err)
		}
		p.seen(obj.ID().Type)
		if filter.Skips(obj.ID().Type) {
			continue
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	p.done()
	return nil
}

func (s *PBF) classify(op string, err error) error {
	if isIOError(err) {
		return apperr.IO(op, s.path, err)
	}
	return apperr.Decode(op, s.path, err)
}

func convertQedus(v any) (osm.Object, error) {
	switch v := v.(type) {
	case *osmpbf.Node:
		return &osm.Node{Ref: v.ID, Lat: v.Lat, Lon: v.Lon, Tags: copyTags(v.Tags)}, nil

	case *osmpbf.Way:
		nodes := make([]int64, len(v.NodeIDs))
		copy(nodes, v.NodeIDs)
		return &osm.Way{Ref: v.ID, Nodes: nodes, Tags: copyTags(v.Tags)}, nil

	case *osmpbf.Relation:
		members := make([]osm.Member, len(v.Members))
		for i, m := range v.Members {
			var t osm.Type
			switch m.Type {
			case osmpbf.NodeType:
				t = osm.TypeNode
			case osmpbf.WayType:
				t = osm.TypeWay
			case osmpbf.RelationType:
				t = osm.TypeRelation
			default:
				return nil, fmt.Errorf("relation %d: unknown member type %d", v.ID, m.Type)
			}
			members[i] = osm.Member{ID: osm.ObjectID{Type: t, Ref: m.ID}, Role: m.Role}
		}
		return &osm.Relation{Ref: v.ID, Members: members, Tags: copyTags(v.Tags)}, nil
	}
	return nil, fmt.Errorf("unknown type %T", v)
}

func copyTags(in map[string]string) osm.Tags {
	out := make(osm.Tags, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
