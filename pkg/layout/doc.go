// Package layout positions flow graphs through a pluggable layout oracle.
//
// # Overview
//
// The flow builder assigns rough initial positions. A layout oracle then
// computes final coordinates from node sizes, edges and a small set of
// directives. The oracle sits behind the [Oracle] interface so engines can
// be swapped: [github.com/matzehuels/gardenflow/pkg/layout/tree] is a
// pure-Go layered tree layout and
// [github.com/matzehuels/gardenflow/pkg/layout/dot] delegates to Graphviz.
//
// # Failure Handling
//
// [Adapter.Layout] never fails. If the oracle errors, panics, times out or
// returns garbage, the pre-layout graph is returned unchanged with
// [Result.Fallback] set, and a warning is logged. Nodes missing from an
// oracle response keep their existing position.
//
// # Stale Requests
//
// A [Session] serializes interactive layouts: each Submit supersedes the
// one before it. A superseded request's result is discarded and the caller
// receives [ErrSuperseded], so only the newest graph is ever applied.
package layout
