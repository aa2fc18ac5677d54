package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/render"
)

// Options configures node-link preview rendering.
type Options struct {
	// Detailed adds the node type and description to labels.
	Detailed bool

	// Pinned draws every node at its flow position instead of letting
	// Graphviz lay the graph out again.
	Pinned bool
}

// ToDOT converts a flow graph to Graphviz DOT source.
// The result can be rendered with [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Reference nodes and reference edges are dashed. Nodes are outlined in their
// garden's primary theme color when it is a hex color.
func ToDOT(g flow.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range g.Nodes {
		n := &g.Nodes[i]
		attrs := fmtAttrs(n, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if attrs := fmtEdgeAttrs(e); len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *flow.Node, detailed bool) string {
	label := n.Label()
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}
	parts := []string{label, string(n.Type)}
	if d := n.Common().Description; d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *flow.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
	switch n.Type {
	case flow.NodeEcosystem:
		attrs = append(attrs, "penwidth=2")
	case flow.NodeReferenceUp, flow.NodeReferenceDown:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	if t := n.Common().Theme; t != nil {
		if isHexColor(t.PrimaryColor) {
			attrs = append(attrs, fmt.Sprintf("color=%q", t.PrimaryColor))
		}
		if isHexColor(t.TextColor) {
			attrs = append(attrs, fmt.Sprintf("fontcolor=%q", t.TextColor))
		}
	}
	if opts.Pinned {
		// Graphviz places node centres with y growing upwards, in inches.
		cx := (n.Position.X + n.Width/2) / 72
		cy := -(n.Position.Y + n.Height/2) / 72
		attrs = append(attrs,
			fmt.Sprintf("pos=\"%s,%s!\"", inches(cx), inches(cy)),
			fmt.Sprintf("width=%s", inches(n.Width/72)),
			fmt.Sprintf("height=%s", inches(n.Height/72)),
			"fixedsize=true",
		)
	}
	return attrs
}

func fmtEdgeAttrs(e flow.Edge) []string {
	var attrs []string
	if e.Style.Dashed() {
		attrs = append(attrs, "style=dashed")
	}
	if e.Style.Width > 0 {
		attrs = append(attrs, "penwidth="+strconv.FormatFloat(e.Style.Width, 'g', -1, 64))
	}
	if isHexColor(e.Style.Stroke) {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Style.Stroke))
	}
	return attrs
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

var hexColorRe = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// isHexColor reports whether s is a color Graphviz understands. Theme colors
// may also be CSS variables, which are skipped.
func isHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

// RenderSVG renders g to SVG using Graphviz. Pinned graphs are drawn with
// the neato engine, which keeps pinned positions; others are laid out by dot.
func RenderSVG(ctx context.Context, g flow.Graph, opts Options) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	if opts.Pinned {
		gv.SetLayout(graphviz.NEATO)
	}

	graph, err := graphviz.ParseBytes([]byte(ToDOT(g, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// pixel-sized one so browsers scale the preview consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders g as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, g flow.Graph, opts Options) ([]byte, error) {
	svg, err := RenderSVG(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders g as PNG via SVG conversion. A scale of 2.0 produces a
// 2x resolution image.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, g flow.Graph, opts Options, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
