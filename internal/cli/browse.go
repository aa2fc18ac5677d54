package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/httputil"
	"github.com/matzehuels/gardenflow/pkg/layout"
	"github.com/matzehuels/gardenflow/pkg/navigate"
	"github.com/matzehuels/gardenflow/pkg/pipeline"
)

type browseOpts struct {
	flags       buildFlags
	inputFormat string
	registry    string
	noCache     bool
}

// browseCommand opens the interactive garden browser.
func (c *CLI) browseCommand() *cobra.Command {
	opts := browseOpts{}

	cmd := &cobra.Command{
		Use:   "browse [schema|garden]",
		Short: "Explore gardens interactively in the terminal",
		Long: `Explore a garden and follow its links to other gardens.

The argument is a schema file, an http(s) URL, or the name of a garden in
the registry. Without an argument a registry garden is picked from a list.
Selecting a subgarden, supergarden or garden reference rebuilds the view
around that garden; backspace returns to the previous one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd, args, &opts)
		},
	}

	opts.flags.register(cmd)
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "schema format: json, yaml or toml (default from extension)")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "directory of known gardens (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runBrowse(cmd *cobra.Command, args []string, opts *browseOpts) error {
	ctx := cmd.Context()

	reg, _, err := c.loadRegistry(ctx, opts.registry)
	if err != nil {
		return err
	}

	var root *garden.Garden
	switch {
	case len(args) == 0:
		names := reg.Names()
		if len(names) == 0 {
			return errors.New(errors.ErrCodeNotFound, "the registry is empty; pass a schema or set --registry")
		}
		final, err := tea.NewProgram(NewGardenListModel(names), tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}
		pick := final.(GardenListModel).Selected
		if pick == "" {
			return nil
		}
		root, _ = reg.Lookup(pick)
	case args[0] == stdinInput:
		return errors.New(errors.ErrCodeInvalidInput, "browse needs the terminal; pass a file, URL or garden name")
	default:
		if g, ok := reg.Lookup(args[0]); ok && !httputil.IsURL(args[0]) {
			root = g
		} else if root, err = c.loadGarden(ctx, args[0], opts.inputFormat, nil); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := opts.flags.options(cmd, c.config().PipelineOptions())
	popts.Logger = c.Logger
	b, err := newBrowser(runner, reg.With(root), popts, c.config().Server.Cooldown.Duration)
	if err != nil {
		return err
	}
	defer b.Close()

	_, err = tea.NewProgram(NewBrowseModel(ctx, b, root), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// browser - pipeline driver behind the TUI
// =============================================================================

// flowView is one built and laid out garden.
type flowView struct {
	Garden   *garden.Garden
	Graph    flow.Graph
	Width    float64
	Height   float64
	Fallback bool
	Err      error
	Elapsed  time.Duration
}

// browser builds views for the TUI. Layouts go through a session so a
// slow layout for a garden the user already left never replaces a newer one.
type browser struct {
	runner   *pipeline.Runner
	registry garden.Registry
	opts     pipeline.Options
	session  *layout.Session
	resolver *navigate.Resolver
}

func newBrowser(runner *pipeline.Runner, reg garden.Registry, opts pipeline.Options, cooldown time.Duration) (*browser, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	session, err := runner.NewSession(opts)
	if err != nil {
		return nil, err
	}
	return &browser{
		runner:   runner,
		registry: reg,
		opts:     opts,
		session:  session,
		resolver: navigate.NewResolver(reg, cooldown, opts.Logger),
	}, nil
}

// open builds and lays out g. It returns [layout.ErrSuperseded] when a
// newer open started first.
func (b *browser) open(ctx context.Context, g *garden.Garden) (*flowView, error) {
	start := time.Now()
	graph := b.runner.Build(ctx, g, b.registry, b.opts)
	view := &flowView{Garden: g, Graph: graph}

	if !b.opts.SkipLayout {
		res, err := b.session.Submit(ctx, graph, b.opts.LayoutOptions())
		if err != nil {
			return nil, err
		}
		view.Graph = res.Graph
		view.Width, view.Height = res.Width, res.Height
		view.Fallback, view.Err = res.Fallback, res.Err
	}
	view.Elapsed = time.Since(start)
	return view, nil
}

// navigate resolves a selection on n.
func (b *browser) navigate(ctx context.Context, n *flow.Node) (*garden.Garden, error) {
	req, err := b.resolver.Navigate(ctx, n, time.Now())
	if err != nil {
		return nil, err
	}
	return req.Garden, nil
}

func (b *browser) Close() {
	b.session.Close()
}

// describeNavError turns a navigation failure into a status line.
func describeNavError(err error) string {
	var throttled *errors.ThrottledError
	if errors.As(err, &throttled) {
		return fmt.Sprintf("Slow down, try again in %dms", throttled.RetryAfterMillis)
	}
	return errors.UserMessage(err)
}
