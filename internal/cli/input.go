package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/httputil"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
	"github.com/matzehuels/gardenflow/pkg/store"
)

// =============================================================================
// Schema Input
// =============================================================================

// stdinInput selects standard input as the schema source.
const stdinInput = "-"

// loadGarden reads and validates a schema from a file, an http(s) URL, or
// stdin ("-"). format overrides the detected format when set.
func (c *CLI) loadGarden(ctx context.Context, input, format string, stdin io.Reader) (*garden.Garden, error) {
	switch {
	case input == stdinInput:
		f, err := garden.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		return garden.Decode(stdin, f)

	case httputil.IsURL(input):
		c.Logger.Debug("fetching schema", "url", input)
		doc, err := httputil.Fetch(ctx, nil, input, httputil.Options{})
		if err != nil {
			return nil, err
		}
		if format == "" {
			format = doc.Format
		}
		f, err := garden.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		return garden.Decode(bytes.NewReader(doc.Data), f)

	case format != "":
		f, err := garden.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", input)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", input)
		}
		defer file.Close()
		return garden.Decode(file, f)

	default:
		return garden.ReadFile(input)
	}
}

// outputBase derives an output file name (without extension) for input.
func outputBase(input string, g *garden.Garden) string {
	if input != stdinInput && !httputil.IsURL(input) {
		base := filepath.Base(input)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	name := strings.ToLower(strings.TrimSpace(g.Name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" {
		return "garden"
	}
	return name
}

// =============================================================================
// Registry
// =============================================================================

// loadRegistry loads the known gardens from dir (the configured directory
// when empty) and the configured Mongo collection. remote holds the Mongo
// gardens alone so watchers can merge them under reloads.
func (c *CLI) loadRegistry(ctx context.Context, dir string) (reg, remote *garden.MapRegistry, err error) {
	cfg := c.config().Registry
	if dir == "" {
		dir = cfg.Dir
	}

	var local *garden.MapRegistry
	if dir != "" {
		local, err = store.NewDir(dir, c.Logger).Load(ctx)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("loaded registry directory", "dir", dir, "gardens", local.Len())
	}

	if cfg.MongoURI != "" {
		m, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		defer m.Close(context.WithoutCancel(ctx))
		remote, err = m.Load(ctx)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("loaded registry collection", "db", cfg.MongoDatabase, "gardens", remote.Len())
	}

	return store.Merge(local, remote), remote, nil
}

// =============================================================================
// Build Flags
// =============================================================================

// buildFlags are the pipeline options shared by build, browse and serve.
// Only flags the user set override the config file.
type buildFlags struct {
	expand       bool
	maxDepth     int
	width        float64
	edgeType     string
	staticEdges  bool
	engine       string
	nodeSpacing  float64
	layerSpacing float64
	skipLayout   bool
	refresh      bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.expand, "expand", false, "inline subgardens instead of drawing reference nodes")
	fs.IntVar(&f.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "maximum subgarden expansion depth")
	fs.Float64Var(&f.width, "width", pipeline.DefaultWidth, "canvas width for initial placement")
	fs.StringVar(&f.edgeType, "edge-type", "", "edge routing type (default, straight, step, smoothstep)")
	fs.BoolVar(&f.staticEdges, "static-edges", false, "disable edge animation")
	fs.StringVar(&f.engine, "engine", pipeline.DefaultEngine, "layout engine: tree or dot")
	fs.Float64Var(&f.nodeSpacing, "node-spacing", 0, "horizontal gap between nodes (0 = engine default)")
	fs.Float64Var(&f.layerSpacing, "layer-spacing", 0, "vertical gap between layers (0 = engine default)")
	fs.BoolVar(&f.skipLayout, "skip-layout", false, "keep the builder's initial positions")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// options overlays the flags the user set on the configured options.
func (f *buildFlags) options(cmd *cobra.Command, base pipeline.Options) pipeline.Options {
	fs := cmd.Flags()
	if fs.Changed("expand") {
		base.Expand = f.expand
	}
	if fs.Changed("max-depth") {
		base.MaxDepth = f.maxDepth
	}
	if fs.Changed("width") {
		base.Width = f.width
	}
	if fs.Changed("edge-type") {
		base.EdgeType = f.edgeType
	}
	if fs.Changed("static-edges") {
		base.StaticEdges = f.staticEdges
	}
	if fs.Changed("engine") {
		base.Engine = f.engine
	}
	if fs.Changed("node-spacing") {
		base.NodeSpacing = f.nodeSpacing
	}
	if fs.Changed("layer-spacing") {
		base.LayerSpacing = f.layerSpacing
	}
	base.SkipLayout = f.skipLayout
	base.Refresh = f.refresh
	return base
}
