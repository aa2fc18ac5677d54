package flow

import (
	"fmt"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeType tags the kind of a [Node] and selects its payload type.
type NodeType string

// Node types.
const (
	NodeEcosystem     NodeType = "ecosystem"
	NodeCategory      NodeType = "category"
	NodeItem          NodeType = "item"
	NodeReferenceUp   NodeType = "reference-up"
	NodeReferenceDown NodeType = "reference-down"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeEcosystem, NodeCategory, NodeItem, NodeReferenceUp, NodeReferenceDown:
		return true
	}
	return false
}

// Side names the border of a node where an edge attaches.
type Side string

// Handle sides.
const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// EdgeKind distinguishes containment edges from cross-garden links.
type EdgeKind string

// Edge kinds.
const (
	EdgeContains  EdgeKind = "contains"
	EdgeReference EdgeKind = "reference"
	EdgeExpansion EdgeKind = "expansion"
)

// =============================================================================
// Graph
// =============================================================================

// Graph is the output of [Build]: a node-link diagram of one garden.
//
// Graphs have no identity across builds. Every schema edit, expansion toggle
// or navigation produces a fresh Graph.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// Node returns a pointer to the node with the given id, or nil.
func (g Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Root returns the focal ecosystem node: the ecosystem node at depth 0.
// It returns nil for an empty graph.
func (g Graph) Root() *Node {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type == NodeEcosystem && n.Common().Depth == 0 {
			return n
		}
	}
	return nil
}

// Validate checks the structural invariants of a built graph: node ids are
// unique and every edge endpoint refers to a node in the graph.
func (g Graph) Validate() error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("edge %q: unknown source %q", e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("edge %q: unknown target %q", e.ID, e.Target)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of g. Payloads are copied so annotating the
// clone never affects the original.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: slices.Clone(g.Edges),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n
		if n.Data != nil {
			out.Nodes[i].Data = n.Data.clone()
		}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// =============================================================================
// Node
// =============================================================================

// Position is a node's top-left corner in diagram coordinates.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is a vertex of the diagram. Data holds the type-specific payload:
// *EcosystemData, *CategoryData, *ItemData or *ReferenceData.
type Node struct {
	ID           string   `json:"id" bson:"id"`
	Type         NodeType `json:"type" bson:"type"`
	Position     Position `json:"position" bson:"position"`
	Width        float64  `json:"width" bson:"width"`
	Height       float64  `json:"height" bson:"height"`
	SourceHandle Side     `json:"source_handle,omitempty" bson:"source_handle,omitempty"`
	TargetHandle Side     `json:"target_handle,omitempty" bson:"target_handle,omitempty"`
	Data         Payload  `json:"data" bson:"data"`
}

// Common returns the payload fields shared by every node type. It never
// returns nil; a node without payload yields an empty value.
func (n *Node) Common() *Common {
	if n.Data == nil {
		return &Common{}
	}
	return n.Data.common()
}

// Label returns the node's display label.
func (n *Node) Label() string { return n.Common().Label }

// Target returns the name of the garden this node represents when it points
// somewhere other than the current root: reference nodes and ecosystem
// nodes spliced in by expansion. It returns "" for all other nodes.
func (n *Node) Target() string {
	switch d := n.Data.(type) {
	case *ReferenceData:
		return d.Garden
	case *EcosystemData:
		if d.Expanded {
			return d.Garden
		}
	}
	return ""
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed connection. Containment edges point parent to child;
// supergarden edges point from the reference node to the garden.
type Edge struct {
	ID           string    `json:"id" bson:"id"`
	Source       string    `json:"source" bson:"source"`
	Target       string    `json:"target" bson:"target"`
	SourceHandle Side      `json:"source_handle,omitempty" bson:"source_handle,omitempty"`
	TargetHandle Side      `json:"target_handle,omitempty" bson:"target_handle,omitempty"`
	Kind         EdgeKind  `json:"kind" bson:"kind"`
	Type         string    `json:"type,omitempty" bson:"type,omitempty"`
	Animated     bool      `json:"animated,omitempty" bson:"animated,omitempty"`
	Style        EdgeStyle `json:"style" bson:"style"`
	Marker       string    `json:"marker,omitempty" bson:"marker,omitempty"`
	ZIndex       int       `json:"z_index" bson:"z_index"`
}

// EdgeStyle is the stroke presentation of an edge.
type EdgeStyle struct {
	Stroke    string  `json:"stroke,omitempty" bson:"stroke,omitempty"`
	Width     float64 `json:"width,omitempty" bson:"width,omitempty"`
	DashArray string  `json:"dash_array,omitempty" bson:"dash_array,omitempty"`
	Opacity   float64 `json:"opacity,omitempty" bson:"opacity,omitempty"`
}

// Dashed reports whether the edge is drawn with a dash pattern.
func (s EdgeStyle) Dashed() bool { return s.DashArray != "" }

// EdgeID returns the canonical id of the edge from source to target.
func EdgeID(source, target string) string {
	return source + "-to-" + target
}
