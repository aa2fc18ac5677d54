package layout

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
)

func sample() flow.Graph {
	return flow.Build(&garden.Garden{
		Name:    "Root",
		Version: "1",
		Categories: []garden.Category{{
			Name:  "A",
			Items: []garden.Item{{Name: "B"}},
		}},
	}, nil, flow.Options{})
}

func fixed(positions map[string]flow.Position) Oracle {
	return OracleFunc(func(context.Context, Request) (Response, error) {
		return Response{Positions: positions, Width: 100, Height: 50}, nil
	})
}

func TestAdapterMergesPositions(t *testing.T) {
	g := sample()
	a := NewAdapter(fixed(map[string]flow.Position{
		"ecosystem-root":  {X: 1, Y: 2},
		"category-root/a": {X: 3, Y: 4},
	}), nil)

	res := a.Layout(context.Background(), g, Options{})
	if res.Fallback || res.Err != nil {
		t.Fatalf("Layout() fallback=%v err=%v", res.Fallback, res.Err)
	}
	if p := res.Graph.Node("ecosystem-root").Position; p != (flow.Position{X: 1, Y: 2}) {
		t.Errorf("root position = %v, want {1 2}", p)
	}
	if p := res.Graph.Node("category-root/a").Position; p != (flow.Position{X: 3, Y: 4}) {
		t.Errorf("category position = %v, want {3 4}", p)
	}
	if got, want := res.Graph.Node("item-root/a/b").Position, g.Node("item-root/a/b").Position; got != want {
		t.Errorf("omitted node moved to %v, want %v", got, want)
	}
	if res.Width != 100 || res.Height != 50 {
		t.Errorf("bounds = %vx%v, want 100x50", res.Width, res.Height)
	}
	if g.Node("ecosystem-root").Position == (flow.Position{X: 1, Y: 2}) {
		t.Error("Layout modified its input graph")
	}
}

func TestAdapterRefreshesEdges(t *testing.T) {
	g := sample()
	g.Edges[0].ZIndex = 7
	g.Edges[0].Type = ""

	res := NewAdapter(fixed(nil), nil).Layout(context.Background(), g, Options{})
	e := res.Graph.Edges[0]
	if e.ZIndex != 0 || e.Type != flow.DefaultEdgeType {
		t.Errorf("edge = z %d type %q, want refreshed", e.ZIndex, e.Type)
	}
	if e.Source != g.Edges[0].Source || e.Target != g.Edges[0].Target {
		t.Errorf("edge endpoints changed: %+v", e)
	}
}

func TestAdapterFallback(t *testing.T) {
	tests := []struct {
		name   string
		oracle Oracle
		code   errors.Code
	}{
		{"nil oracle", nil, errors.ErrCodeLayoutFailed},
		{"error", OracleFunc(func(context.Context, Request) (Response, error) {
			return Response{}, errors.New(errors.ErrCodeInternal, "boom")
		}), errors.ErrCodeLayoutFailed},
		{"panic", OracleFunc(func(context.Context, Request) (Response, error) {
			panic("boom")
		}), errors.ErrCodeLayoutFailed},
		{"non-finite", fixed(map[string]flow.Position{"ecosystem-root": {X: math.NaN()}}), errors.ErrCodeLayoutFailed},
		{"timeout", OracleFunc(func(context.Context, Request) (Response, error) {
			time.Sleep(time.Second)
			return Response{}, nil
		}), errors.ErrCodeLayoutFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sample()
			a := NewAdapter(tt.oracle, nil)
			res := a.Layout(context.Background(), g, Options{Timeout: 20 * time.Millisecond})

			if !res.Fallback {
				t.Fatal("Fallback = false, want true")
			}
			if !errors.Is(res.Err, tt.code) {
				t.Errorf("Err = %v, want code %s", res.Err, tt.code)
			}
			if !reflect.DeepEqual(res.Graph, g) {
				t.Error("fallback graph differs from input")
			}
		})
	}
}

func TestAdapterEmptyGraph(t *testing.T) {
	called := false
	a := NewAdapter(OracleFunc(func(context.Context, Request) (Response, error) {
		called = true
		return Response{}, nil
	}), nil)

	res := a.Layout(context.Background(), flow.Graph{}, Options{})
	if called || res.Fallback {
		t.Errorf("empty graph: called=%v fallback=%v", called, res.Fallback)
	}
}

func TestNewRequest(t *testing.T) {
	g := sample()
	req := NewRequest(g, DirectivesFor(false))

	if len(req.Nodes) != 3 || len(req.Edges) != 2 {
		t.Fatalf("request = %d nodes %d edges, want 3/2", len(req.Nodes), len(req.Edges))
	}
	roots := 0
	for _, n := range req.Nodes {
		if n.Root {
			roots++
			if n.ID != "ecosystem-root" {
				t.Errorf("root = %q, want ecosystem-root", n.ID)
			}
		}
		if n.Width != flow.NodeWidth || n.Height <= 0 {
			t.Errorf("node %s size = %vx%v", n.ID, n.Width, n.Height)
		}
	}
	if roots != 1 {
		t.Errorf("roots = %d, want 1", roots)
	}
	if req.Edges[0].Source != "ecosystem-root" || req.Edges[0].Target != "category-root/a" {
		t.Errorf("edge[0] = %+v", req.Edges[0])
	}
}

func TestDirectives(t *testing.T) {
	tests := []struct {
		opts          Options
		node, layer   float64
		wantAlgorithm string
	}{
		{Options{}, DefaultNodeSpacing, DefaultLayerSpacing, AlgorithmTree},
		{Options{Expanded: true}, ExpandedNodeSpacing, ExpandedLayerSpacing, AlgorithmTree},
		{Options{Expanded: true, NodeSpacing: 50}, 50, ExpandedLayerSpacing, AlgorithmTree},
	}
	for _, tt := range tests {
		d := tt.opts.Directives()
		if d.NodeSpacing != tt.node || d.LayerSpacing != tt.layer || d.Algorithm != tt.wantAlgorithm || d.Direction != DirectionDown {
			t.Errorf("Directives(%+v) = %+v", tt.opts, d)
		}
	}
	if ExpandedNodeSpacing <= DefaultNodeSpacing || ExpandedLayerSpacing <= DefaultLayerSpacing {
		t.Error("expanded spacing must exceed default spacing")
	}
}
