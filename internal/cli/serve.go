package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/gardenflow/internal/server"
	"github.com/matzehuels/gardenflow/pkg/garden"
	"github.com/matzehuels/gardenflow/pkg/observability/prom"
	"github.com/matzehuels/gardenflow/pkg/store"
)

type serveOpts struct {
	addr     string
	registry string
	watch    bool
	cooldown time.Duration
	noCache  bool
}

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flow API over HTTP",
		Long: `Serve the flow API over HTTP.

Known gardens are loaded from the registry directory and, when configured,
a MongoDB collection. With --watch the directory is reloaded whenever a
schema file changes. Metrics are exposed on /metrics.`,
		Example: `  gardenflow serve --registry ./gardens --watch
  GARDENFLOW_CACHE_BACKEND=redis GARDENFLOW_CACHE_REDIS_ADDR=localhost:6379 gardenflow serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "directory of known gardens (default from config)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the registry directory on changes")
	cmd.Flags().DurationVar(&opts.cooldown, "cooldown", 0, "per-client navigation cooldown (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	cfg := c.config()

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	cooldown := cfg.Server.Cooldown.Duration
	if opts.cooldown > 0 {
		cooldown = opts.cooldown
	}
	dir := opts.registry
	if dir == "" {
		dir = cfg.Registry.Dir
	}
	watch := opts.watch || cfg.Registry.Watch

	reg, remote, err := c.loadRegistry(ctx, dir)
	if err != nil {
		return err
	}
	live := store.NewLive(reg)
	c.Logger.Info("registry loaded", "gardens", reg.Len())

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom.New(metrics).Install()

	srv := server.New(server.Config{
		Runner:   runner,
		Registry: live,
		Defaults: cfg.PipelineOptions(),
		Cooldown: cooldown,
		Metrics:  promhttp.HandlerFor(metrics, promhttp.HandlerOpts{Registry: metrics}),
		Logger:   c.Logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr)
	})
	if watch && dir != "" {
		g.Go(func() error {
			return store.Watch(ctx, store.NewDir(dir, c.Logger), live, store.WatchOptions{
				Extra: remote,
				OnReload: func(r *garden.MapRegistry) {
					c.Logger.Debug("registry swapped", "gardens", r.Len())
				},
			})
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
