// Package navigate turns clicks on cross-garden nodes into rebuild requests.
//
// A flow graph marks nodes that stand for another garden: supergarden,
// subgarden and garden_ref references, and expanded nested ecosystems.
// [Resolver.Navigate] checks that a node is such a node, applies a cooldown
// so rapid repeated clicks collapse into one, resolves the target against
// the registry and returns a [Request] to rebuild rooted there.
//
// The resolver never builds graphs itself; callers feed the returned garden
// back into the pipeline.
package navigate

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/observability"
)

// DefaultCooldown is the minimum interval between accepted navigations.
const DefaultCooldown = 500 * time.Millisecond

// Request asks the caller to rebuild the graph rooted at Garden.
type Request struct {
	Garden *garden.Garden
	From   string        // id of the clicked node
	Via    flow.Relation // empty for expanded ecosystems
}

// Resolver validates and rate-limits navigation.
type Resolver struct {
	registry garden.Registry
	logger   *log.Logger

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewResolver creates a resolver over registry. A non-positive cooldown
// selects [DefaultCooldown]; a nil logger discards output.
func NewResolver(registry garden.Registry, cooldown time.Duration, logger *log.Logger) *Resolver {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{
		registry: registry,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(cooldown), 1),
	}
}

// Target returns the garden name a node points at, or "" when the node is
// not navigable.
func Target(n *flow.Node) string {
	if n == nil {
		return ""
	}
	return n.Target()
}

// Navigable reports whether clicking n should trigger navigation.
func Navigable(n *flow.Node) bool {
	return Target(n) != ""
}

// Navigate resolves a click on n at time now.
//
// Errors are checked in order: INVALID_INPUT for a node that does not point
// at a garden, a [*errors.ThrottledError] inside the cooldown window, and
// GARDEN_NOT_FOUND when the target is not in the registry. A throttled or
// invalid click does not consume the cooldown.
func (r *Resolver) Navigate(ctx context.Context, n *flow.Node, now time.Time) (Request, error) {
	target := Target(n)
	if target == "" {
		return Request{}, errors.New(errors.ErrCodeInvalidInput, "node is not navigable")
	}

	if wait := r.reserve(now); wait > 0 {
		observability.Navigation().OnNavigateThrottled(ctx, target)
		r.logger.Debug("navigation throttled", "target", target, "retry_after", wait)
		return Request{}, errors.Wrap(errors.ErrCodeNavigationThrottled,
			&errors.ThrottledError{RetryAfterMillis: wait.Milliseconds()}, "navigation to %q", target)
	}

	var g *garden.Garden
	ok := false
	if r.registry != nil {
		g, ok = r.registry.Lookup(target)
	}
	if !ok {
		err := errors.New(errors.ErrCodeGardenNotFound, "garden %q is not in the registry", target)
		observability.Navigation().OnNavigateFailed(ctx, target, err)
		return Request{}, err
	}

	observability.Navigation().OnNavigate(ctx, target)
	r.logger.Debug("navigate", "from", n.ID, "target", target)

	req := Request{Garden: g, From: n.ID}
	if d, isRef := n.Data.(*flow.ReferenceData); isRef {
		req.Via = d.Relation
	}
	return req, nil
}

// reserve takes the cooldown token at now, returning how long the caller
// must wait when it is not available.
func (r *Resolver) reserve(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(1<<63 - 1)
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d
	}
	return 0
}
