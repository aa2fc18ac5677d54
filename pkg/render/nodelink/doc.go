// Package nodelink renders flow graphs as static node-link diagrams.
//
// # Overview
//
// This package turns a [flow.Graph] into Graphviz DOT and renders it to SVG,
// PDF or PNG. Ecosystem nodes are drawn heavier, reference nodes and
// reference edges are dashed, and theme colors carry over when they are hex
// colors.
//
// # Usage
//
//	svg, err := nodelink.RenderSVG(ctx, g, nodelink.Options{})
//
// With Pinned set, every node is drawn at the position the layout stage
// computed, so the preview matches the interactive diagram:
//
//	svg, err := nodelink.RenderSVG(ctx, g, nodelink.Options{Pinned: true})
//
// Without it, Graphviz's dot engine lays the graph out again, which is
// useful for graphs that fell back to initial positions.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
