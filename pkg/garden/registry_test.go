package garden

import (
	"reflect"
	"sync"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	a := &Garden{Name: "Alpha", Version: "1"}
	a2 := &Garden{Name: "Alpha", Version: "2"}
	b := &Garden{Name: "Beta", Version: "1"}

	r := NewRegistry(b, nil, &Garden{Version: "0"}, a, a2)

	if got := r.Names(); !reflect.DeepEqual(got, []string{"Alpha", "Beta"}) {
		t.Errorf("Names() = %v, want [Alpha Beta]", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	got, ok := r.Lookup("Alpha")
	if !ok || got.Version != "1" {
		t.Errorf("Lookup(Alpha) = %v, %v, want first registered", got, ok)
	}
	if _, ok := r.Lookup("alpha"); ok {
		t.Error("Lookup is case-sensitive; lowercase name should not resolve")
	}
}

func TestRegistryNamesIsCopy(t *testing.T) {
	r := NewRegistry(&Garden{Name: "A"}, &Garden{Name: "B"})
	names := r.Names()
	names[0] = "mutated"
	if r.Names()[0] != "A" {
		t.Error("Names() must return a copy")
	}
}

func TestRegistryWith(t *testing.T) {
	r := NewRegistry(&Garden{Name: "A", Version: "1"})
	next := r.With(&Garden{Name: "A", Version: "2"})

	if g, _ := r.Lookup("A"); g.Version != "1" {
		t.Errorf("original registry changed: version = %s", g.Version)
	}
	if g, _ := next.Lookup("A"); g.Version != "2" {
		t.Errorf("With() version = %s, want 2", g.Version)
	}

	var empty *MapRegistry
	if got := empty.With(&Garden{Name: "X"}).Names(); !reflect.DeepEqual(got, []string{"X"}) {
		t.Errorf("nil.With().Names() = %v, want [X]", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *MapRegistry
	if _, ok := r.Lookup("x"); ok {
		t.Error("nil registry Lookup should miss")
	}
	if r.Names() != nil {
		t.Error("nil registry Names should be nil")
	}
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := NewRegistry(&Garden{Name: "A"}, &Garden{Name: "B"})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Lookup("A")
				r.Names()
			}
		}()
	}
	wg.Wait()
}
