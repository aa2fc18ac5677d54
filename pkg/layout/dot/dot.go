// Package dot implements a layout oracle backed by Graphviz.
//
// # Overview
//
// The oracle converts a layout request to DOT source with fixed-size boxes,
// runs the Graphviz "dot" engine in-process via
// [github.com/goccy/go-graphviz], and reads node centres back from the
// positioned DOT output.
//
// Node ids are replaced by synthetic names (n0, n1, ...) in the generated
// source so arbitrary ids never need escaping when parsing the result.
// Nodes marked as roots are placed on the minimum rank.
//
// # Units
//
// Graphviz measures node sizes in inches and positions in points with the
// origin at the bottom-left. Flow coordinates are pixels with the origin at
// the top-left; one point is taken as one pixel.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/layout"
)

const pointsPerInch = 72.0

// Oracle is the Graphviz layout engine.
type Oracle struct{}

// New returns a Graphviz oracle.
func New() *Oracle { return &Oracle{} }

// Layout implements [layout.Oracle].
func (o *Oracle) Layout(ctx context.Context, req layout.Request) (layout.Response, error) {
	if len(req.Nodes) == 0 {
		return layout.Response{Positions: map[string]flow.Position{}}, nil
	}
	src, err := ToDOT(req)
	if err != nil {
		return layout.Response{}, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return layout.Response{}, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return layout.Response{}, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return layout.Response{}, fmt.Errorf("render: %w", err)
	}
	return parsePositions(buf.Bytes(), req)
}

// ToDOT converts a layout request to Graphviz DOT source.
func ToDOT(req layout.Request) (string, error) {
	rankdir := "TB"
	switch req.Directives.Direction {
	case "", layout.DirectionDown:
	case layout.DirectionRight:
		rankdir = "LR"
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported direction %q", req.Directives.Direction)
	}

	nodeSep := req.Directives.NodeSpacing
	if nodeSep <= 0 {
		nodeSep = layout.DefaultNodeSpacing
	}
	rankSep := req.Directives.LayerSpacing
	if rankSep <= 0 {
		rankSep = layout.DefaultLayerSpacing
	}

	names := make(map[string]string, len(req.Nodes))
	var roots []string
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(nodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(rankSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, n := range req.Nodes {
		name := "n" + strconv.Itoa(i)
		if _, dup := names[n.ID]; dup {
			continue
		}
		names[n.ID] = name
		if n.Root {
			roots = append(roots, name)
		}
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", name, inches(n.Width), inches(n.Height))
	}

	// Roots sit on the first rank, above (or left of) everything else.
	if len(roots) > 0 {
		fmt.Fprintf(&buf, "  { rank=min; %s; }\n", strings.Join(roots, "; "))
	}

	buf.WriteString("\n")
	for _, e := range req.Edges {
		s, ok1 := names[e.Source]
		t, ok2 := names[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", s, t)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func inches(px float64) string {
	return strconv.FormatFloat(px/pointsPerInch, 'f', 4, 64)
}

var (
	nodeRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s+\[([^\]]*)\]`)
	posRe  = regexp.MustCompile(`pos="([-0-9.e+]+),([-0-9.e+]+)!?"`)
	bbRe   = regexp.MustCompile(`bb="([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+),([-0-9.e+]+)"`)
)

// parsePositions reads node centres from positioned DOT output and
// converts them to top-left pixel positions.
func parsePositions(out []byte, req layout.Request) (layout.Response, error) {
	// Graphviz wraps long attribute values with a backslash-newline.
	out = bytes.ReplaceAll(out, []byte("\\\n"), nil)

	bb := bbRe.FindSubmatch(out)
	if bb == nil {
		return layout.Response{}, fmt.Errorf("graphviz output has no bounding box")
	}
	var box [4]float64
	for i := range box {
		box[i], _ = strconv.ParseFloat(string(bb[i+1]), 64)
	}
	left, top := box[0], box[3]
	width, height := box[2]-box[0], box[3]-box[1]

	resp := layout.Response{
		Positions: make(map[string]flow.Position, len(req.Nodes)),
		Width:     width,
		Height:    height,
	}
	for _, m := range nodeRe.FindAllSubmatch(out, -1) {
		i, err := strconv.Atoi(string(m[1]))
		if err != nil || i < 0 || i >= len(req.Nodes) {
			continue
		}
		p := posRe.FindSubmatch(m[2])
		if p == nil {
			continue
		}
		cx, err1 := strconv.ParseFloat(string(p[1]), 64)
		cy, err2 := strconv.ParseFloat(string(p[2]), 64)
		if err1 != nil || err2 != nil {
			return layout.Response{}, fmt.Errorf("bad position for %s: %s", req.Nodes[i].ID, strings.TrimSpace(string(p[0])))
		}
		n := req.Nodes[i]
		resp.Positions[n.ID] = flow.Position{
			X: cx - left - n.Width/2,
			Y: (top - cy) - n.Height/2,
		}
	}
	return resp, nil
}
