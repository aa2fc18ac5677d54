package garden

import "slices"

// Registry is a read-only, name-keyed view of all known gardens.
// Implementations must be safe for concurrent reads.
type Registry interface {
	// Lookup returns the garden with the exact given name.
	Lookup(name string) (*Garden, bool)
	// Names returns all garden names in sorted order.
	Names() []string
}

// MapRegistry is an immutable in-memory [Registry].
type MapRegistry struct {
	byName map[string]*Garden
	names  []string
}

// NewRegistry builds a registry from the given gardens. Nil gardens and
// gardens without a name are ignored; when two gardens share a name the
// first one wins.
func NewRegistry(gardens ...*Garden) *MapRegistry {
	r := &MapRegistry{byName: make(map[string]*Garden, len(gardens))}
	for _, g := range gardens {
		if g == nil || g.Name == "" {
			continue
		}
		if _, dup := r.byName[g.Name]; dup {
			continue
		}
		r.byName[g.Name] = g
		r.names = append(r.names, g.Name)
	}
	slices.Sort(r.names)
	return r
}

// Lookup implements [Registry].
func (r *MapRegistry) Lookup(name string) (*Garden, bool) {
	if r == nil {
		return nil, false
	}
	g, ok := r.byName[name]
	return g, ok
}

// Names implements [Registry]. The returned slice is a copy.
func (r *MapRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.names)
}

// Len returns the number of gardens in the registry.
func (r *MapRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// With returns a new registry containing r's gardens plus g. If g's name is
// already present, g replaces it in the new registry. r is not modified.
func (r *MapRegistry) With(g *Garden) *MapRegistry {
	gardens := make([]*Garden, 0, r.Len()+1)
	if g != nil {
		gardens = append(gardens, g)
	}
	for _, name := range r.Names() {
		gardens = append(gardens, r.byName[name])
	}
	return NewRegistry(gardens...)
}
