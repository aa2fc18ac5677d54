// Package tree implements a pure-Go layered tree layout oracle.
//
// Nodes are assigned levels by breadth-first search from the request root
// over outgoing edges. Each subtree reserves a horizontal span wide enough
// for its children, and parents are centred over their children. Nodes
// that only point into the tree (supergarden references) are placed one
// level above their target: beside the target when it has a parent, or in a
// row above it when it is a tree root. Nodes unreachable from the root form
// extra trees to the right.
//
// The layout is deterministic: identical requests yield identical
// positions. Coordinates are normalized so the top-left corner is (0, 0).
package tree

import (
	"context"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/layout"
)

// Oracle is the tree layout engine. The zero value is ready to use.
type Oracle struct{}

// New returns a tree oracle.
func New() *Oracle { return &Oracle{} }

// Layout implements [layout.Oracle].
func (o *Oracle) Layout(ctx context.Context, req layout.Request) (layout.Response, error) {
	if err := ctx.Err(); err != nil {
		return layout.Response{}, err
	}

	horizontal := false
	switch req.Directives.Direction {
	case "", layout.DirectionDown:
	case layout.DirectionRight:
		horizontal = true
	default:
		return layout.Response{}, errors.New(errors.ErrCodeUnsupported, "unsupported direction %q", req.Directives.Direction)
	}

	if len(req.Nodes) == 0 {
		return layout.Response{Positions: map[string]flow.Position{}}, nil
	}

	f := newForest(req, horizontal)
	f.assignLevels()
	for _, r := range f.roots {
		f.measure(r)
	}
	f.assignX()
	f.placeAncestors()
	return f.response(horizontal), nil
}

// =============================================================================
// Forest
// =============================================================================

type node struct {
	id       string
	w, h     float64
	level    int
	cx       float64 // centre x
	span     float64 // subtree width
	parent   int
	children []int
}

type ancestorGroup struct {
	target  int
	members []int
}

type forest struct {
	nodes    []node
	out      [][]int
	root     int
	roots    []int
	groups   []ancestorGroup
	visited  []bool
	nodeGap  float64
	layerGap float64
}

func newForest(req layout.Request, horizontal bool) *forest {
	f := &forest{
		nodes:    make([]node, len(req.Nodes)),
		out:      make([][]int, len(req.Nodes)),
		visited:  make([]bool, len(req.Nodes)),
		nodeGap:  req.Directives.NodeSpacing,
		layerGap: req.Directives.LayerSpacing,
	}
	if f.nodeGap <= 0 {
		f.nodeGap = layout.DefaultNodeSpacing
	}
	if f.layerGap <= 0 {
		f.layerGap = layout.DefaultLayerSpacing
	}

	index := make(map[string]int, len(req.Nodes))
	for i, n := range req.Nodes {
		w, h := n.Width, n.Height
		if horizontal {
			w, h = h, w
		}
		f.nodes[i] = node{id: n.ID, w: w, h: h, parent: -1}
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = i
		}
		if n.Root {
			f.root = i
		}
	}
	for _, e := range req.Edges {
		s, ok1 := index[e.Source]
		t, ok2 := index[e.Target]
		if ok1 && ok2 && s != t {
			f.out[s] = append(f.out[s], t)
		}
	}
	return f
}

// assignLevels builds the spanning forest. The request root is always the
// first tree.
func (f *forest) assignLevels() {
	f.bfs(f.root)
	for i := range f.nodes {
		if f.visited[i] {
			continue
		}
		if t := f.visitedTarget(i); t >= 0 {
			f.adopt(i, t)
			continue
		}
		f.bfs(i)
	}
}

func (f *forest) bfs(r int) {
	f.visited[r] = true
	f.nodes[r].level = 0
	f.roots = append(f.roots, r)
	queue := []int{r}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range f.out[u] {
			if f.visited[v] {
				continue
			}
			f.visited[v] = true
			f.nodes[v].level = f.nodes[u].level + 1
			f.nodes[v].parent = u
			f.nodes[u].children = append(f.nodes[u].children, v)
			queue = append(queue, v)
		}
	}
}

func (f *forest) visitedTarget(i int) int {
	for _, t := range f.out[i] {
		if f.visited[t] {
			return t
		}
	}
	return -1
}

// adopt places an upward node a next to its target t. With a parent, a
// becomes t's preceding sibling; otherwise it joins t's ancestor row.
func (f *forest) adopt(a, t int) {
	f.visited[a] = true
	if p := f.nodes[t].parent; p >= 0 {
		f.nodes[a].level = f.nodes[t].level
		f.nodes[a].parent = p
		kids := f.nodes[p].children
		at := 0
		for k, c := range kids {
			if c == t {
				at = k
				break
			}
		}
		kids = append(kids, 0)
		copy(kids[at+1:], kids[at:])
		kids[at] = a
		f.nodes[p].children = kids
		return
	}

	f.nodes[a].level = f.nodes[t].level - 1
	for k := range f.groups {
		if f.groups[k].target == t {
			f.groups[k].members = append(f.groups[k].members, a)
			return
		}
	}
	f.groups = append(f.groups, ancestorGroup{target: t, members: []int{a}})
}

func (f *forest) measure(u int) float64 {
	n := &f.nodes[u]
	total := 0.0
	for k, c := range n.children {
		if k > 0 {
			total += f.nodeGap
		}
		total += f.measure(c)
	}
	n.span = max(n.w, total)
	return n.span
}

func (f *forest) assignX() {
	cursor := 0.0
	for _, r := range f.roots {
		f.place(r, cursor)
		cursor += f.nodes[r].span + f.nodeGap
	}
}

func (f *forest) place(u int, left float64) {
	n := &f.nodes[u]
	n.cx = left + n.span/2

	total := 0.0
	for k, c := range n.children {
		if k > 0 {
			total += f.nodeGap
		}
		total += f.nodes[c].span
	}
	start := n.cx - total/2
	for _, c := range n.children {
		f.place(c, start)
		start += f.nodes[c].span + f.nodeGap
	}
}

func (f *forest) placeAncestors() {
	for _, g := range f.groups {
		total := 0.0
		for k, a := range g.members {
			if k > 0 {
				total += f.nodeGap
			}
			total += f.nodes[a].w
		}
		start := f.nodes[g.target].cx - total/2
		for _, a := range g.members {
			f.nodes[a].cx = start + f.nodes[a].w/2
			start += f.nodes[a].w + f.nodeGap
		}
	}
}

// response converts centres and levels to normalized top-left positions.
func (f *forest) response(horizontal bool) layout.Response {
	minLevel, maxLevel := f.nodes[0].level, f.nodes[0].level
	for _, n := range f.nodes {
		minLevel = min(minLevel, n.level)
		maxLevel = max(maxLevel, n.level)
	}

	heights := make([]float64, maxLevel-minLevel+1)
	for _, n := range f.nodes {
		l := n.level - minLevel
		heights[l] = max(heights[l], n.h)
	}
	offsets := make([]float64, len(heights))
	for l := 1; l < len(heights); l++ {
		offsets[l] = offsets[l-1] + heights[l-1] + f.layerGap
	}

	minX := f.nodes[0].cx - f.nodes[0].w/2
	for _, n := range f.nodes {
		minX = min(minX, n.cx-n.w/2)
	}

	resp := layout.Response{Positions: make(map[string]flow.Position, len(f.nodes))}
	var width, height float64
	for _, n := range f.nodes {
		x := n.cx - n.w/2 - minX
		y := offsets[n.level-minLevel]
		width = max(width, x+n.w)
		height = max(height, y+n.h)
		if horizontal {
			x, y = y, x
		}
		if _, seen := resp.Positions[n.id]; !seen {
			resp.Positions[n.id] = flow.Position{X: x, Y: y}
		}
	}
	if horizontal {
		width, height = height, width
	}
	resp.Width, resp.Height = width, height
	return resp
}
