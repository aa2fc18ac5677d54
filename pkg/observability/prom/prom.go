// Package prom implements the observability hooks with Prometheus metrics.
//
// A single [Metrics] value satisfies every hook interface in
// [github.com/matzehuels/gardenflow/pkg/observability]:
//
//	m := prom.New(prometheus.DefaultRegisterer)
//	m.Install()
//	http.Handle("/metrics", promhttp.Handler())
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/gardenflow/pkg/observability"
)

const namespace = "gardenflow"

// Metrics holds the Prometheus collectors behind the hooks.
type Metrics struct {
	builds         *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	buildNodes     prometheus.Histogram
	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	navigations    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInFlight   prometheus.Gauge
}

// New creates and registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph builds by root garden.",
		}, []string{"garden"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Graph build duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		buildNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_nodes",
			Help:      "Nodes per built graph.",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000},
		}),
		layouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layout calls by engine and result.",
		}, []string{"engine", "result"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Layout duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"engine"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		navigations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigation requests by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

// Install registers m as every global hook.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetNavigationHooks(m)
	observability.SetHTTPHooks(m)
}

// =============================================================================
// Pipeline
// =============================================================================

func (m *Metrics) OnBuildStart(_ context.Context, garden string) {
	m.builds.WithLabelValues(garden).Inc()
}

func (m *Metrics) OnBuildComplete(_ context.Context, _ string, nodes, _ int, d time.Duration) {
	m.buildDuration.Observe(d.Seconds())
	m.buildNodes.Observe(float64(nodes))
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, engine string, d time.Duration, fallback bool, _ error) {
	result := "ok"
	if fallback {
		result = "fallback"
	}
	m.layouts.WithLabelValues(engine, result).Inc()
	m.layoutDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// =============================================================================
// Cache
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// =============================================================================
// Navigation
// =============================================================================

func (m *Metrics) OnNavigate(context.Context, string) {
	m.navigations.WithLabelValues("ok").Inc()
}

func (m *Metrics) OnNavigateThrottled(context.Context, string) {
	m.navigations.WithLabelValues("throttled").Inc()
}

func (m *Metrics) OnNavigateFailed(context.Context, string, error) {
	m.navigations.WithLabelValues("not_found").Inc()
}

// =============================================================================
// HTTP
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.httpInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpInFlight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
