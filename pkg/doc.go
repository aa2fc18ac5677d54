// Package pkg holds the gardenflow libraries.
//
// Gardenflow turns garden schemas (an ecosystem of items, nested categories
// and links to related gardens) into positioned node-link graphs for an
// interactive frontend. Data flows through:
//
//	schema (JSON, YAML, TOML)
//	     ↓
//	[garden]    decode, validate, lint
//	     ↓
//	[flow]      build nodes and edges, track connections
//	     ↓
//	[layout]    position through a layout oracle, fall back on failure
//	     ↓
//	JSON graph, or an SVG/PNG/PDF preview via [render/nodelink]
//
// [pipeline] runs these stages with caching ([cache]) and is shared by the
// CLI, the terminal browser and the HTTP API. [navigate] turns clicks on
// cross-garden nodes into rebuild requests. [store] loads the registry of
// known gardens from a directory or MongoDB, [config] reads settings, and
// [observability] exposes tracing and Prometheus hooks.
package pkg
