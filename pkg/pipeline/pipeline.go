// Package pipeline provides the visualization pipeline for gardenflow.
//
// This package implements the complete build → track → layout pipeline that
// is shared by the CLI, the browse TUI and the HTTP API, so every entry point
// produces the same graph for the same input.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: compile a root garden and registry into a flow graph
//  2. Track: annotate every node with its connections
//  3. Layout: position the graph through a layout oracle, falling back to
//     the builder's initial positions when the oracle fails
//
// Positioned flows and oracle positions are cached separately; fallback
// results are never cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Visualize(ctx, root, registry, pipeline.Options{
//	    Expand: true,
//	    Engine: pipeline.EngineDot,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Fallback {
//	    log.Warn("layout failed", "err", result.LayoutErr)
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/cache"
	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, TUI, and API
// =============================================================================

const (
	// DefaultMaxDepth bounds subgarden expansion.
	DefaultMaxDepth = flow.DefaultMaxDepth

	// DefaultWidth is the canvas width for initial placement.
	DefaultWidth = flow.DefaultWidth

	// DefaultEdgeType is the edge routing type.
	DefaultEdgeType = flow.DefaultEdgeType

	// DefaultLayoutTimeout bounds one oracle call.
	DefaultLayoutTimeout = layout.DefaultTimeout
)

// Layout engines.
const (
	EngineTree = "tree"
	EngineDot  = "dot"
)

// DefaultEngine is the in-process tree oracle.
const DefaultEngine = EngineTree

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[string]bool{
	EngineTree: true,
	EngineDot:  true,
}

// ValidEdgeTypes is the set of edge routing types the frontend understands.
var ValidEdgeTypes = map[string]bool{
	"default":      true,
	"straight":     true,
	"step":         true,
	"smoothstep":   true,
	"simplebezier": true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	Expand      bool    `json:"expand,omitempty"`
	MaxDepth    int     `json:"max_depth,omitempty"`
	Width       float64 `json:"width,omitempty"`
	EdgeType    string  `json:"edge_type,omitempty"`
	StaticEdges bool    `json:"static_edges,omitempty"`

	// Layout options
	Engine       string  `json:"engine,omitempty"`
	NodeSpacing  float64 `json:"node_spacing,omitempty"`
	LayerSpacing float64 `json:"layer_spacing,omitempty"`
	SkipLayout   bool    `json:"skip_layout,omitempty"` // keep the builder's initial positions
	Refresh      bool    `json:"refresh,omitempty"`     // bypass cache reads

	// Runtime options (not serialized)
	LayoutTimeout time.Duration `json:"-"`
	Logger        *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the tracked, positioned flow graph.
	Graph flow.Graph

	// GardenHash is the content hash of the root garden.
	GardenHash string

	// Width and Height are the layout bounds, zero on fallback.
	Width  float64
	Height float64

	// Fallback is set when the layout oracle failed and Graph carries the
	// builder's initial positions.
	Fallback bool

	// LayoutErr is the oracle failure behind a fallback.
	LayoutErr error

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FlowHit   bool // the whole positioned flow came from cache
	LayoutHit bool // oracle positions came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateEngine checks that an engine name is valid.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidOption, "invalid engine: %q (must be one of: tree, dot)", engine)
	}
	return nil
}

// ValidateEdgeType checks that an edge type is valid. Empty is valid and
// leaves the choice to the layout refresh.
func ValidateEdgeType(edgeType string) error {
	if edgeType != "" && !ValidEdgeTypes[edgeType] {
		return errors.New(errors.ErrCodeInvalidOption, "invalid edge_type: %q", edgeType)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks option ranges and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	build := o.BuildOptions()
	if err := build.Validate(); err != nil {
		return err
	}
	if err := ValidateEdgeType(o.EdgeType); err != nil {
		return err
	}
	if o.NodeSpacing < 0 || o.LayerSpacing < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "spacing must not be negative")
	}
	if o.LayoutTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "layout timeout must not be negative")
	}

	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.LayoutTimeout == 0 {
		o.LayoutTimeout = DefaultLayoutTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Copy returns o with its validation state cleared, so fields overlaid on a
// shared set of defaults are checked again on the next run.
func (o Options) Copy() Options {
	o.validated = false
	return o
}

// BuildOptions returns the options for [flow.Build].
func (o *Options) BuildOptions() flow.Options {
	return flow.Options{
		Expand:      o.Expand,
		MaxDepth:    o.MaxDepth,
		Width:       o.Width,
		EdgeType:    o.EdgeType,
		StaticEdges: o.StaticEdges,
		Logger:      o.Logger,
	}
}

// LayoutOptions returns the options for [layout.Adapter.Layout].
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Expanded:     o.Expand,
		NodeSpacing:  o.NodeSpacing,
		LayerSpacing: o.LayerSpacing,
		Timeout:      o.LayoutTimeout,
	}
}

// FlowKeyOpts returns cache key options for a positioned flow.
func (o *Options) FlowKeyOpts(registry string) cache.FlowKeyOpts {
	engine := o.Engine
	if o.SkipLayout {
		engine = "none"
	}
	return cache.FlowKeyOpts{
		Registry: registry,
		Expand:   o.Expand,
		MaxDepth: o.MaxDepth,
		Width:    o.Width,
		EdgeType: o.EdgeType,
		Static:   o.StaticEdges,
		Engine:   engine,
	}
}

// LayoutKeyOpts returns cache key options for oracle positions. Spacing is
// keyed by its resolved value so presets and explicit values share entries.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	d := o.LayoutOptions().Directives()
	return cache.LayoutKeyOpts{
		Engine:       o.Engine,
		NodeSpacing:  d.NodeSpacing,
		LayerSpacing: d.LayerSpacing,
	}
}
