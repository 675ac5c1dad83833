// Package source turns an OSM PBF extract into a stream of osm.Objects.
//
// A Source is restartable: every Scan call is one complete pass over the
// underlying data, which the closure loader relies on to resolve references
// that appear before the objects referring to them.
package source

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/osm"
)

// Filter lets a pass skip whole object types. Backends that can skip
// blocks do so before decoding; others drop the objects after decoding.
type Filter struct {
	SkipNodes     bool
	SkipWays      bool
	SkipRelations bool
}

func (f Filter) Skips(t osm.Type) bool {
	switch t {
	case osm.TypeNode:
		return f.SkipNodes
	case osm.TypeWay:
		return f.SkipWays
	case osm.TypeRelation:
		return f.SkipRelations
	}
	return false
}

// Source delivers objects sequentially to fn. A non-nil error from fn stops
// the pass and is returned unchanged.
type Source interface {
	Scan(ctx context.Context, filter Filter, fn func(osm.Object) error) error
}

// Both decoders register the same fileformat.proto with the global protobuf
// registry, so a binary links exactly one of them: qedus by default,
// paulmach with -tags paulmach. Decoder names the one built in.
const (
	DecoderQedus    = "qedus"
	DecoderPaulmach = "paulmach"
)

type Options struct {
	Path    string
	Decoder string
	Procs   int
	Logger  *zerolog.Logger
}

// Open validates opts and returns the backend it names. The file is only
// checked here; each Scan opens its own handle.
func Open(opts Options) (Source, error) {
	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, apperr.IO("stat", opts.Path, err)
	}
	if info.IsDir() {
		return nil, apperr.IO("stat", opts.Path, errIsDir)
	}
	if opts.Procs <= 0 {
		opts.Procs = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	name := strings.ToLower(strings.TrimSpace(opts.Decoder))
	if name != "" && name != Decoder {
		switch name {
		case DecoderQedus, DecoderPaulmach:
			return nil, apperr.Configf("decoder", "decoder %q is not built into this binary (have %s; the paulmach decoder needs -tags paulmach)", opts.Decoder, Decoder)
		}
		return nil, apperr.Configf("decoder", "unknown decoder %q (want %s or %s)", opts.Decoder, DecoderQedus, DecoderPaulmach)
	}
	return newSource(opts.Path, info.Size(), opts.Procs, log), nil
}
