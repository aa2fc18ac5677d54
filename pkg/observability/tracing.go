package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for gardenflow spans. Spans go to
// the global tracer provider, which is a no-op until the embedding program
// installs one.
const TracerName = "github.com/matzehuels/gardenflow"

// Span kinds recorded in the gardenflow.span.kind attribute.
const (
	SpanKindPipeline = "pipeline"
	SpanKindBuild    = "build"
	SpanKindLayout   = "layout"
	SpanKindHTTP     = "http"
)

// StartPipelineSpan starts the span covering one Visualize call.
func StartPipelineSpan(ctx context.Context, garden, engine string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pipeline.visualize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gardenflow.span.kind", SpanKindPipeline),
			attribute.String("gardenflow.garden", garden),
			attribute.String("gardenflow.engine", engine),
		),
	)
}

// StartBuildSpan starts a span for the build and track stages.
func StartBuildSpan(ctx context.Context, garden string, expand bool) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "pipeline.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gardenflow.span.kind", SpanKindBuild),
			attribute.String("gardenflow.garden", garden),
			attribute.Bool("gardenflow.expand", expand),
		),
	)
}

// RecordBuildResult records graph size on a build span.
func RecordBuildResult(span trace.Span, nodes, edges int, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("gardenflow.nodes", nodes),
		attribute.Int("gardenflow.edges", edges),
		attribute.Int64("gardenflow.duration_ms", duration.Milliseconds()),
	)
}

// StartLayoutSpan starts a span for one layout oracle call.
func StartLayoutSpan(ctx context.Context, engine string, nodes int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "layout."+engine,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gardenflow.span.kind", SpanKindLayout),
			attribute.String("gardenflow.engine", engine),
			attribute.Int("gardenflow.nodes", nodes),
		),
	)
}

// RecordLayoutResult records the layout outcome on a span. A fallback marks
// the span as failed.
func RecordLayoutResult(span trace.Span, cacheHit, fallback bool, err error) {
	span.SetAttributes(
		attribute.Bool("gardenflow.cache_hit", cacheHit),
		attribute.Bool("gardenflow.fallback", fallback),
	)
	if fallback {
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "layout fell back to initial positions")
	}
}

// StartHTTPSpan starts a server span for one API request.
func StartHTTPSpan(ctx context.Context, method, path, requestID string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("gardenflow.span.kind", SpanKindHTTP),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("gardenflow.request_id", requestID),
		),
	)
}

// RecordHTTPResult records the matched route and status on a request span.
// Server errors mark the span as failed.
func RecordHTTPResult(span trace.Span, method, route string, status int) {
	span.SetName(method + " " + route)
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	)
	if status >= 500 {
		span.SetStatus(codes.Error, "server error")
	}
}
