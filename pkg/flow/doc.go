// Package flow compiles a garden schema into a node-link diagram.
//
// # Pipeline
//
// A diagram is produced in three steps, each a pure function of its input:
//
//  1. [Build] walks one root [garden.Garden] and emits [Node] and [Edge]
//     values, resolving references against a [garden.Registry].
//  2. [TrackConnections] derives per-node inbound and outbound adjacency.
//  3. pkg/layout assigns positions (the only step that may block).
//
// # Node Types
//
//	ecosystem       a garden (the root, or one spliced in by expansion)
//	category        a grouping inside a garden
//	item            a product or service leaf
//	reference-up    a supergarden link, drawn above its garden
//	reference-down  a condensed subgarden or category garden_ref link
//
// Each type carries its own payload ([EcosystemData], [CategoryData],
// [ItemData], [ReferenceData]) embedding the shared [Common] fields.
//
// # Identity
//
// Node ids are "<type>-<qualifier>" where the qualifier is the lower-cased,
// hyphenated path of ancestor names, for example:
//
//	ecosystem-omni
//	category-omni/developer-tools
//	item-omni/developer-tools/omni-sdk
//	item-omni/direct/omni-cli
//
// Identical input always yields identical ids. Same-named siblings get a
// numeric suffix ("-2", "-3") in input order. Edge ids are
// "<source>-to-<target>".
//
// # Expansion
//
// With [Options.Expand] set, subgardens and category garden_refs that resolve
// in the registry are built in place, one level deeper, up to
// [Options.MaxDepth]. The depth bound is what terminates cyclic reference
// chains such as A -> B -> A.
package flow
