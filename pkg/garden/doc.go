// Package garden defines the ecosystem schema that gardenflow visualizes.
//
// A [Garden] is the root organizational entity. It owns a list of [Item]
// leaves, a tree of [Category] groupings, and optional [Reference] links to
// other gardens ("supergardens" above it, "subgardens" below it). References
// only carry a name and URL; they are resolved at build time against a
// [Registry] of all known gardens.
//
// # Interchange Format
//
// JSON is the canonical format. YAML and TOML files carry the same field
// names and are normalized to JSON before decoding, so every format shares a
// single validation path:
//
//	{
//	  "name": "Omni",
//	  "version": "1.0.0",
//	  "items": [{"name": "CLI", "homepage_url": "https://omni.dev"}],
//	  "categories": [{"name": "Developer Tools", "categories": []}],
//	  "subgardens": [{"name": "Omni Labs", "url": "https://labs.omni.dev"}]
//	}
//
// Nested categories always use the "categories" field.
//
// # Validation
//
// [Validate] implements the edit-boundary check: a document missing "name",
// missing "version", or carrying a non-array "categories" value is rejected
// with an INVALID_SCHEMA error naming the offending field. Malformed entries
// deeper in the tree (for example an item without a name) are accepted here
// and skipped later by the graph builder.
//
// # Registry
//
// A [Registry] is a read-only, name-keyed view of all known gardens. It is
// safe for concurrent use and never mutated after construction.
package garden
