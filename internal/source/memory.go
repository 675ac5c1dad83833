package source

import (
	"context"

	"github.com/val3rkq/osmbounds/internal/osm"
)

// Memory replays a fixed object sequence on every pass. Passes counts the
// Scan calls made against it.
type Memory struct {
	Objects []osm.Object
	Passes  int
}

func NewMemory(objs ...osm.Object) *Memory {
	return &Memory{Objects: objs}
}

func (m *Memory) Scan(ctx context.Context, filter Filter, fn func(osm.Object) error) error {
	m.Passes++
	for _, obj := range m.Objects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if filter.Skips(obj.ID().Type) {
			continue
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}
