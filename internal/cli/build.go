package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
	"github.com/matzehuels/gardenflow/pkg/render"
	"github.com/matzehuels/gardenflow/pkg/render/nodelink"
)

// buildOpts holds options for the build command.
type buildOpts struct {
	flags       buildFlags
	output      string
	formats     string
	inputFormat string
	registry    string
	detailed    bool
	scale       float64
	noCache     bool
}

// flowDocument is the JSON written by build.
type flowDocument struct {
	Garden     string     `json:"garden"`
	Version    string     `json:"version"`
	GardenHash string     `json:"garden_hash"`
	Graph      flow.Graph `json:"graph"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Fallback   bool       `json:"fallback,omitempty"`
}

// buildCommand creates the build command for compiling schemas into flows.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{}

	cmd := &cobra.Command{
		Use:   "build [schema]",
		Short: "Compile a garden schema into a positioned flow graph",
		Long: `Compile a garden schema into a positioned flow graph.

The schema may be a .json, .yaml or .toml file, an http(s) URL, or "-" for
standard input (use --input-format for YAML or TOML on stdin).

Output formats: json (the graph), svg, png and pdf (previews).
With a single json output and no -o, the graph is written to stdout.`,
		Example: `  gardenflow build omni.yaml
  gardenflow build omni.yaml -f json,svg -o out/omni
  gardenflow build https://example.com/omni.json --expand --engine dot
  cat omni.toml | gardenflow build - --input-format toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args[0], &opts)
		},
	}

	opts.flags.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (base name when writing several formats)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: json,svg,png,pdf (default json)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "schema format: json, yaml or toml (default from extension)")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "directory of known gardens (default from config)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node type and description in previews")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, input string, opts *buildOpts) error {
	ctx := cmd.Context()

	formats, err := parseFormats(opts.formats)
	if err != nil {
		return err
	}
	toStdout := opts.output == "" && len(formats) == 1 && formats[0] == render.FormatJSON
	ui := c.Out
	if toStdout {
		ui = c.Err
	}

	g, err := c.loadGarden(ctx, input, opts.inputFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}
	printIssues(ui, input, garden.Lint(g))

	reg, _, err := c.loadRegistry(ctx, opts.registry)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := opts.flags.options(cmd, c.config().PipelineOptions())
	popts.Logger = c.Logger

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, c.Err, fmt.Sprintf("Building %s...", g.Name))
	spinner.Start()
	res, err := runner.Visualize(ctx, g, reg, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("built flow", "garden", g.Name, "nodes", res.Stats.NodeCount, "edges", res.Stats.EdgeCount)

	if res.Fallback {
		printWarning(ui, "Layout failed, keeping initial positions: %v", res.LayoutErr)
	}

	if toStdout {
		if err := writeFlowJSON(c.Out, g.Name, g.Version, res); err != nil {
			return err
		}
		printStats(ui, statsOf(res))
		return nil
	}

	base := opts.output
	if base == "" {
		base = outputBase(input, g)
	} else if len(formats) > 1 {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	printSuccess(ui, "Built %s %s", StyleHighlight.Render(g.Name), StyleDim.Render(g.Version))
	printStats(ui, statsOf(res))
	for _, f := range formats {
		path := base
		if opts.output == "" || len(formats) > 1 {
			path = base + "." + f
		}
		if err := c.writeOutput(ctx, path, f, g.Name, g.Version, res, opts); err != nil {
			return err
		}
		printFile(ui, path)
	}
	return nil
}

func (c *CLI) writeOutput(ctx context.Context, path, format, name, version string, res *pipeline.Result, opts *buildOpts) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}

	var data []byte
	var err error
	nopts := nodelink.Options{Detailed: opts.detailed, Pinned: !res.Fallback}
	switch format {
	case render.FormatJSON:
		f, ferr := os.Create(path)
		if ferr != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, ferr, "create %s", path)
		}
		defer f.Close()
		return writeFlowJSON(f, name, version, res)
	case render.FormatSVG:
		data, err = nodelink.RenderSVG(ctx, res.Graph, nopts)
	case render.FormatPNG:
		data, err = nodelink.RenderPNG(ctx, res.Graph, nopts, opts.scale)
	case render.FormatPDF:
		data, err = nodelink.RenderPDF(ctx, res.Graph, nopts)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func writeFlowJSON(w io.Writer, name, version string, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(flowDocument{
		Garden:     name,
		Version:    version,
		GardenHash: res.GardenHash,
		Graph:      res.Graph,
		Width:      res.Width,
		Height:     res.Height,
		Fallback:   res.Fallback,
	})
}

func statsOf(res *pipeline.Result) flowStats {
	return flowStats{
		Nodes:    res.Stats.NodeCount,
		Edges:    res.Stats.EdgeCount,
		Cached:   res.CacheInfo.FlowHit || res.CacheInfo.LayoutHit,
		Fallback: res.Fallback,
	}
}
