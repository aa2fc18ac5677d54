package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/cache"
	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/layout"
	"github.com/matzehuels/gardenflow/pkg/layout/dot"
	"github.com/matzehuels/gardenflow/pkg/layout/tree"
	"github.com/matzehuels/gardenflow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the TUI and the HTTP API all use it.
//
// The Runner is stateless except for the cache, oracles and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Oracles maps engine names to layout oracles.
	Oracles map[string]layout.Oracle

	// TTL overrides the per-artifact cache TTLs when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Oracles: map[string]layout.Oracle{
			EngineTree: tree.New(),
			EngineDot:  dot.New(),
		},
	}
}

// cachedFlow is the cache encoding of a positioned flow.
type cachedFlow struct {
	Graph  flow.Graph `json:"graph"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// cachedLayout is the cache encoding of oracle positions.
type cachedLayout struct {
	Positions map[string]flow.Position `json:"positions"`
	Width     float64                  `json:"width"`
	Height    float64                  `json:"height"`
}

// Visualize runs the complete build → track → layout pipeline with caching.
//
// A failed layout is not an error: the result carries the builder's initial
// positions with Fallback set. Errors are returned only for a nil root and
// invalid options.
func (r *Runner) Visualize(ctx context.Context, root *garden.Garden, reg garden.Registry, opts Options) (*Result, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "root garden is required")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartPipelineSpan(ctx, root.Name, opts.Engine)
	defer span.End()

	gardenData, err := json.Marshal(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode garden %q", root.Name)
	}
	result := &Result{GardenHash: cache.Hash(gardenData)}
	cacheKey := r.Keyer.FlowKey(result.GardenHash, opts.FlowKeyOpts(RegistryFingerprint(reg)))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, cacheKey); hit {
			var cached cachedFlow
			if err := json.Unmarshal(data, &cached); err == nil {
				result.Graph = cached.Graph
				result.Width, result.Height = cached.Width, cached.Height
				result.Stats.NodeCount = cached.Graph.NodeCount()
				result.Stats.EdgeCount = cached.Graph.EdgeCount()
				result.CacheInfo = CacheInfo{FlowHit: true, LayoutHit: !opts.SkipLayout}
				opts.Logger.Debug("flow cache hit", "garden", root.Name, "nodes", result.Stats.NodeCount)
				return result, nil
			}
			// If deserialization fails, fall through to rebuild
		}
	}

	// Stage 1+2: Build and track
	buildStart := time.Now()
	g := r.Build(ctx, root, reg, opts)
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	opts.Logger.Info("built flow",
		"garden", root.Name,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.BuildTime)

	// Stage 3: Layout
	if opts.SkipLayout {
		result.Graph = g
	} else {
		layoutStart := time.Now()
		res, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		result.Graph = res.Graph
		result.Width, result.Height = res.Width, res.Height
		result.Fallback = res.Fallback
		result.LayoutErr = res.Err
		result.Stats.LayoutTime = time.Since(layoutStart)
		result.CacheInfo.LayoutHit = layoutHit

		opts.Logger.Info("computed layout",
			"engine", opts.Engine,
			"fallback", res.Fallback,
			"duration", result.Stats.LayoutTime)
	}

	// Cache the result; fallbacks are retried on the next run
	if !result.Fallback {
		data, err := json.Marshal(cachedFlow{Graph: result.Graph, Width: result.Width, Height: result.Height})
		if err == nil {
			r.cacheSet(ctx, cacheKey, data, cache.TTLFlow)
		}
	}

	return result, nil
}

// Build compiles root against reg and tracks connections. It never fails.
func (r *Runner) Build(ctx context.Context, root *garden.Garden, reg garden.Registry, opts Options) flow.Graph {
	r.applyLogger(&opts)
	name := ""
	if root != nil {
		name = root.Name
	}

	ctx, span := observability.StartBuildSpan(ctx, name, opts.Expand)
	defer span.End()
	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnBuildStart(ctx, name)
	g := flow.TrackConnections(flow.Build(root, reg, opts.BuildOptions()))
	duration := time.Since(start)
	hooks.OnBuildComplete(ctx, name, g.NodeCount(), g.EdgeCount(), duration)
	observability.RecordBuildResult(span, g.NodeCount(), g.EdgeCount(), duration)

	return g
}

// LayoutWithCacheInfo positions g with caching and returns cache hit info.
// Oracle failures are reported through the result's Fallback and Err fields;
// the error return is only for invalid options.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g flow.Graph, opts Options) (layout.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Result{}, false, err
	}

	ctx, span := observability.StartLayoutSpan(ctx, opts.Engine, g.NodeCount())
	defer span.End()

	// Compute cache key
	graphData, _ := flow.MarshalGraph(g)
	cacheKey := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	// Try cache first; cached positions go through the adapter like any
	// oracle response so edges are refreshed the same way.
	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, cacheKey); hit {
			var cached cachedLayout
			if err := json.Unmarshal(data, &cached); err == nil {
				adapter := layout.NewAdapter(cachedOracle(cached), opts.Logger)
				res := adapter.Layout(ctx, g, opts.LayoutOptions())
				if !res.Fallback {
					observability.RecordLayoutResult(span, true, false, nil)
					return res, true, nil
				}
			}
			// If deserialization fails, fall through to recompute
		}
	}

	res := r.Layout(ctx, g, opts)
	observability.RecordLayoutResult(span, false, res.Fallback, res.Err)

	// Cache the result
	if !res.Fallback && res.Graph.NodeCount() > 0 {
		cached := cachedLayout{
			Positions: make(map[string]flow.Position, len(res.Graph.Nodes)),
			Width:     res.Width,
			Height:    res.Height,
		}
		for _, n := range res.Graph.Nodes {
			cached.Positions[n.ID] = n.Position
		}
		if data, err := json.Marshal(cached); err == nil {
			r.cacheSet(ctx, cacheKey, data, cache.TTLLayout)
		}
	}

	return res, false, nil
}

// Layout positions g through the configured engine without caching.
// Invalid options fall back like an oracle failure.
func (r *Runner) Layout(ctx context.Context, g flow.Graph, opts Options) layout.Result {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Result{Graph: g, Fallback: true, Err: err}
	}
	hooks := observability.Pipeline()

	hooks.OnLayoutStart(ctx, opts.Engine, g.NodeCount())
	res := r.Adapter(opts).Layout(ctx, g, opts.LayoutOptions())
	hooks.OnLayoutComplete(ctx, opts.Engine, res.Duration, res.Fallback, res.Err)

	return res
}

// Adapter returns a layout adapter for opts.Engine. An unknown engine yields
// an adapter without an oracle, which always falls back.
func (r *Runner) Adapter(opts Options) *layout.Adapter {
	r.applyLogger(&opts)
	adapter := layout.NewAdapter(r.Oracles[opts.Engine], opts.Logger)
	if opts.LayoutTimeout > 0 {
		adapter.Timeout = opts.LayoutTimeout
	}
	return adapter
}

// NewSession returns a last-request-wins layout session for opts.Engine,
// used by interactive views that relayout while the user navigates.
func (r *Runner) NewSession(opts Options) (*layout.Session, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return layout.NewSession(r.Adapter(opts)), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// RegistryFingerprint hashes the names and contents of every garden in reg,
// so flows built against a changed registry miss the cache. A nil registry
// has an empty fingerprint.
func RegistryFingerprint(reg garden.Registry) string {
	if reg == nil {
		return ""
	}
	names := reg.Names()
	if len(names) == 0 {
		return ""
	}
	entries := make([]json.RawMessage, 0, len(names))
	for _, name := range names {
		g, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		data, err := json.Marshal(g)
		if err != nil {
			continue
		}
		entries = append(entries, data)
	}
	data, _ := json.Marshal(entries)
	return cache.Hash(data)
}

// cacheGet reads key, reporting hits and misses to the cache hooks. Cache
// errors count as misses.
func (r *Runner) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key_type", cache.KeyType(key), "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, cache.KeyType(key))
		return nil, false
	}
	hooks.OnCacheHit(ctx, cache.KeyType(key))
	return data, true
}

// cacheSet writes key. Write failures are logged and otherwise ignored.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key_type", cache.KeyType(key), "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func cachedOracle(c cachedLayout) layout.Oracle {
	return layout.OracleFunc(func(context.Context, layout.Request) (layout.Response, error) {
		return layout.Response{Positions: c.Positions, Width: c.Width, Height: c.Height}, nil
	})
}
