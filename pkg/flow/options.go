package flow

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxDepth bounds subgarden expansion. Expanded gardens sit at
	// depths 1..MaxDepth below the root; references past that stay condensed.
	DefaultMaxDepth = 5

	// MaxAllowedDepth caps user-supplied MaxDepth values.
	MaxAllowedDepth = 10

	// NodeBudget bounds the nodes a build may emit before expansion stops.
	// Once reached, further subgardens are drawn condensed, exactly as at
	// the depth bound, so a cyclic registry cannot fan out without limit.
	NodeBudget = 2000

	// DefaultWidth is the canvas width used for initial placement. The root
	// sits at DefaultWidth/2.
	DefaultWidth = 1600.0
)

// Options configures [Build].
type Options struct {
	// Expand splices resolvable subgardens in place of condensed references.
	Expand bool `json:"expand,omitempty"`

	// MaxDepth bounds expansion depth (default 5).
	MaxDepth int `json:"max_depth,omitempty"`

	// Width is the canvas width for initial placement (default 1600).
	Width float64 `json:"width,omitempty"`

	// EdgeType is the routing type stamped on edges ("smoothstep", "step",
	// ...). Empty leaves the choice to the layout refresh.
	EdgeType string `json:"edge_type,omitempty"`

	// StaticEdges disables edge animation.
	StaticEdges bool `json:"static_edges,omitempty"`

	// Logger receives debug records for skipped entries and reference
	// fallbacks. Nil discards them.
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth > MaxAllowedDepth {
		o.MaxDepth = MaxAllowedDepth
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate reports out-of-range options. Zero values are valid and mean
// "use the default".
func (o *Options) Validate() error {
	if o.MaxDepth < 0 || o.MaxDepth > MaxAllowedDepth {
		return errors.New(errors.ErrCodeInvalidOption, "max_depth must be between 0 and %d, got %d", MaxAllowedDepth, o.MaxDepth)
	}
	if o.Width < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "width must not be negative, got %g", o.Width)
	}
	return nil
}
