package flow

import (
	"strconv"
	"strings"
)

// pathSep joins the names of a node's ancestors into its qualifier.
const pathSep = "/"

// ID returns the deterministic id of a node of type t with the given
// qualifier: the type tag, a hyphen, then the qualifier lower-cased with
// whitespace runs collapsed to single hyphens.
//
// ID does not deduplicate. Callers pass a qualifier encoding the full
// ancestor path so siblings at different positions never share an id.
func ID(t NodeType, qualifier string) string {
	return string(t) + "-" + slug(qualifier)
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// qualify appends name to a parent qualifier.
func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + pathSep + name
}

// idSet hands out ids for one build. Qualifiers are path-unique except for
// same-named siblings, which receive "-2", "-3", ... suffixes in input order.
type idSet struct {
	seen map[string]int
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]int)}
}

func (s *idSet) next(t NodeType, qualifier string) string {
	id := ID(t, qualifier)
	n := s.seen[id]
	s.seen[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := id + "-" + strconv.Itoa(n)
		if _, taken := s.seen[candidate]; !taken {
			s.seen[candidate] = 1
			s.seen[id] = n
			return candidate
		}
	}
}
