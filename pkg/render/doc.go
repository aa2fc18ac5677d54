// Package render produces static previews of positioned flow graphs.
//
// # Overview
//
// The interactive diagram is drawn by the frontend from the JSON graph. For
// terminals, CI artifacts and quick reviews, gardenflow can also render a
// static image:
//
//   - Node-link previews via Graphviz (in [nodelink] subpackage)
//   - Generic format conversion (SVG to PDF/PNG)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := nodelink.RenderSVG(ctx, g, nodelink.Options{Pinned: true})
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/gardenflow/pkg/render/nodelink
package render
