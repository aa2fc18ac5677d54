package layout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 10 * time.Second

// Options configures one [Adapter.Layout] call.
type Options struct {
	// Expanded selects the wider spacing preset.
	Expanded bool

	// NodeSpacing and LayerSpacing override the preset when positive.
	NodeSpacing  float64
	LayerSpacing float64

	// Timeout overrides the adapter timeout when positive.
	Timeout time.Duration
}

// Directives resolves the directives sent to the oracle.
func (o Options) Directives() Directives {
	d := DirectivesFor(o.Expanded)
	if o.NodeSpacing > 0 {
		d.NodeSpacing = o.NodeSpacing
	}
	if o.LayerSpacing > 0 {
		d.LayerSpacing = o.LayerSpacing
	}
	return d
}

// Result is the outcome of a layout call.
type Result struct {
	Graph flow.Graph

	// Width and Height are the bounds reported by the oracle, zero on
	// fallback.
	Width  float64
	Height float64

	// Fallback is set when Graph is the unchanged pre-layout graph.
	Fallback bool

	// Err is the oracle failure behind a fallback.
	Err error

	Duration time.Duration
}

// Adapter applies an [Oracle] to flow graphs.
type Adapter struct {
	Oracle  Oracle
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAdapter creates an adapter. A nil logger discards output.
func NewAdapter(oracle Oracle, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Adapter{Oracle: oracle, Logger: logger, Timeout: DefaultTimeout}
}

// Layout positions g. It never fails: on any oracle failure the input graph
// comes back unchanged with Fallback set.
func (a *Adapter) Layout(ctx context.Context, g flow.Graph, opts Options) Result {
	start := time.Now()
	if len(g.Nodes) == 0 {
		return Result{Graph: g}
	}

	timeout := a.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := a.call(ctx, NewRequest(g, opts.Directives()))
	if err == nil {
		err = resp.Validate()
	}
	if err != nil {
		err = errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout oracle")
		a.logger().Warn("layout failed, keeping initial positions", "nodes", len(g.Nodes), "err", err)
		return Result{Graph: g, Fallback: true, Err: err, Duration: time.Since(start)}
	}

	out := flow.Graph{
		Nodes: make([]flow.Node, len(g.Nodes)),
		Edges: flow.RefreshEdges(g.Edges),
	}
	copy(out.Nodes, g.Nodes)
	missing := 0
	for i := range out.Nodes {
		if p, ok := resp.Positions[out.Nodes[i].ID]; ok {
			out.Nodes[i].Position = p
		} else {
			missing++
		}
	}
	if missing > 0 {
		a.logger().Debug("oracle omitted nodes", "missing", missing)
	}

	return Result{
		Graph:    out,
		Width:    resp.Width,
		Height:   resp.Height,
		Duration: time.Since(start),
	}
}

// call runs the oracle in its own goroutine so a misbehaving oracle can
// neither hang past ctx nor crash the caller.
func (a *Adapter) call(ctx context.Context, req Request) (Response, error) {
	if a.Oracle == nil {
		return Response{}, errors.New(errors.ErrCodeLayoutFailed, "no layout oracle configured")
	}

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("oracle panic: %v", r)}
			}
		}()
		resp, err := a.Oracle.Layout(ctx, req)
		done <- outcome{resp, err}
	}()

	select {
	case o := <-done:
		return o.resp, o.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return Response{}, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "oracle timed out")
		}
		return Response{}, ctx.Err()
	}
}

func (a *Adapter) logger() *log.Logger {
	if a.Logger == nil {
		a.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return a.Logger
}
