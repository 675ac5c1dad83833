package source

import (
	"errors"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/val3rkq/osmbounds/internal/osm"
)

var errIsDir = errors.New("is a directory")

// progress counts decoded objects per pass and logs every few thousand of
// each type at debug level.
type progress struct {
	log       *zerolog.Logger
	path      string
	size      int64
	started   time.Time
	nodes     int
	ways      int
	relations int
}

func newProgress(log *zerolog.Logger, path string, size int64) *progress {
	return &progress{log: log, path: path, size: size, started: time.Now()}
}

func (p *progress) seen(t osm.Type) {
	switch t {
	case osm.TypeNode:
		p.nodes++
		if p.nodes%100000 == 0 {
			p.log.Debug().Int("nodes", p.nodes).Msg("decoding nodes")
		}
	case osm.TypeWay:
		p.ways++
		if p.ways%10000 == 0 {
			p.log.Debug().Int("ways", p.ways).Msg("decoding ways")
		}
	case osm.TypeRelation:
		p.relations++
		if p.relations%1000 == 0 {
			p.log.Debug().Int("relations", p.relations).Msg("decoding relations")
		}
	}
}

func (p *progress) done() {
	p.log.Info().
		Str("file", p.path).
		Float64("size_mb", float64(p.size)/(1024*1024)).
		Int("nodes", p.nodes).
		Int("ways", p.ways).
		Int("relations", p.relations).
		Dur("elapsed", time.Since(p.started)).
		Msg("pass complete")
}

// isIOError separates file-system failures from malformed data; decoders
// surface both through the same error return.
func isIOError(err error) bool {
	var pe *fs.PathError
	return errors.As(err, &pe)
}
