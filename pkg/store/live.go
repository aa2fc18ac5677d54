package store

import (
	"sync/atomic"

	"github.com/matzehuels/gardenflow/pkg/garden"
)

// Live is a [garden.Registry] whose contents can be replaced while it is in
// use. Each call sees one complete snapshot.
type Live struct {
	current atomic.Pointer[garden.MapRegistry]
}

// NewLive creates a live registry holding initial. A nil initial is an empty
// registry.
func NewLive(initial *garden.MapRegistry) *Live {
	l := &Live{}
	l.Swap(initial)
	return l
}

// Swap replaces the current snapshot and returns the previous one.
func (l *Live) Swap(r *garden.MapRegistry) *garden.MapRegistry {
	if r == nil {
		r = garden.NewRegistry()
	}
	return l.current.Swap(r)
}

// Snapshot returns the current snapshot. Builds should resolve against a
// single snapshot so a concurrent reload cannot mix versions.
func (l *Live) Snapshot() *garden.MapRegistry {
	return l.current.Load()
}

// Lookup implements [garden.Registry].
func (l *Live) Lookup(name string) (*garden.Garden, bool) {
	return l.Snapshot().Lookup(name)
}

// Names implements [garden.Registry].
func (l *Live) Names() []string {
	return l.Snapshot().Names()
}

// Merge combines registries into one. When a name appears in more than one,
// the earliest registry wins.
func Merge(regs ...garden.Registry) *garden.MapRegistry {
	var gardens []*garden.Garden
	for _, r := range regs {
		if r == nil {
			continue
		}
		for _, name := range r.Names() {
			if g, ok := r.Lookup(name); ok {
				gardens = append(gardens, g)
			}
		}
	}
	return garden.NewRegistry(gardens...)
}

var _ garden.Registry = (*Live)(nil)
