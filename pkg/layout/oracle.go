package layout

import (
	"context"
	"math"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
)

// =============================================================================
// Directives
// =============================================================================

// Algorithm and direction names sent to oracles.
const (
	AlgorithmTree    = "mrtree"
	AlgorithmLayered = "layered"
	DirectionDown    = "DOWN"
	DirectionRight   = "RIGHT"
)

// Spacing presets. Expanded graphs carry nested gardens side by side, so
// they get more room.
const (
	DefaultNodeSpacing   = 200.0
	DefaultLayerSpacing  = 200.0
	ExpandedNodeSpacing  = 300.0
	ExpandedLayerSpacing = 250.0
)

// Directives are the layout hints passed to an oracle.
type Directives struct {
	Algorithm    string  `json:"algorithm"`
	Direction    string  `json:"direction"`
	NodeSpacing  float64 `json:"node_spacing"`
	LayerSpacing float64 `json:"layer_spacing"`
}

// DirectivesFor returns the preset directives for a plain or expanded graph.
func DirectivesFor(expanded bool) Directives {
	d := Directives{
		Algorithm:    AlgorithmTree,
		Direction:    DirectionDown,
		NodeSpacing:  DefaultNodeSpacing,
		LayerSpacing: DefaultLayerSpacing,
	}
	if expanded {
		d.NodeSpacing = ExpandedNodeSpacing
		d.LayerSpacing = ExpandedLayerSpacing
	}
	return d
}

// =============================================================================
// Oracle Boundary
// =============================================================================

// SizedNode is a node as the oracle sees it: an id with a box.
type SizedNode struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Root   bool    `json:"root,omitempty"`
}

// Link is a directed edge as the oracle sees it.
type Link struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Request is one layout job. Exactly one node is marked Root.
type Request struct {
	Nodes      []SizedNode `json:"nodes"`
	Edges      []Link      `json:"edges"`
	Directives Directives  `json:"directives"`
}

// Response maps node ids to top-left positions. Ids absent from Positions
// keep their current position.
type Response struct {
	Positions map[string]flow.Position `json:"positions"`
	Width     float64                  `json:"width,omitempty"`
	Height    float64                  `json:"height,omitempty"`
}

// Oracle computes node positions. Implementations should honor ctx
// cancellation; the adapter stops waiting on a cancelled ctx either way.
type Oracle interface {
	Layout(ctx context.Context, req Request) (Response, error)
}

// OracleFunc adapts a function to [Oracle].
type OracleFunc func(ctx context.Context, req Request) (Response, error)

// Layout calls f.
func (f OracleFunc) Layout(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// NewRequest converts a flow graph into an oracle request. The root is the
// graph's depth-0 ecosystem, or the first node when there is none.
func NewRequest(g flow.Graph, d Directives) Request {
	req := Request{
		Nodes:      make([]SizedNode, 0, len(g.Nodes)),
		Edges:      make([]Link, 0, len(g.Edges)),
		Directives: d,
	}

	rootID := ""
	if r := g.Root(); r != nil {
		rootID = r.ID
	} else if len(g.Nodes) > 0 {
		rootID = g.Nodes[0].ID
	}

	for _, n := range g.Nodes {
		req.Nodes = append(req.Nodes, SizedNode{
			ID:     n.ID,
			Width:  n.Width,
			Height: n.Height,
			Root:   n.ID == rootID,
		})
	}
	for _, e := range g.Edges {
		req.Edges = append(req.Edges, Link{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	return req
}

// Validate reports a response the adapter must not apply.
func (r Response) Validate() error {
	for id, p := range r.Positions {
		if !finite(p.X) || !finite(p.Y) {
			return errors.New(errors.ErrCodeLayoutFailed, "non-finite position for %q", id)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
