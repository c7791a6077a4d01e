// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/structview/pkg/observability"
)

const namespace = "structview"

// Hooks records engine, pipeline, cache and HTTP events as metrics. It
// implements every hook interface of the observability package.
type Hooks struct {
	RenderDuration  *prometheus.HistogramVec
	RenderPasses    *prometheus.CounterVec
	SceneElements   prometheus.Gauge
	LeakedTotal     prometheus.Counter
	LeakAccumulated prometheus.Gauge
	FreedTotal      prometheus.Counter

	DecodeDuration prometheus.Histogram
	SinkDuration   *prometheus.HistogramVec
	SinkBytes      *prometheus.CounterVec

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	HTTPDuration   *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
}

var (
	_ observability.EngineHooks   = (*Hooks)(nil)
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)

// New registers the metrics with reg and returns the hooks.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time spent in one render pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		RenderPasses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_passes_total",
			Help:      "Render passes by outcome (ok, skipped, invalid, layout_failed, error).",
		}, []string{"outcome"}),
		SceneElements: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scene_elements",
			Help:      "Live elements in the last rendered scene.",
		}),
		LeakedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaked_elements_total",
			Help:      "Elements that disappeared without being freed.",
		}),
		LeakAccumulated: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leak_accumulator_elements",
			Help:      "Elements held in the leak accumulator.",
		}),
		FreedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removed_elements_total",
			Help:      "Models removed from the scene after being freed.",
		}),
		DecodeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_seconds",
			Help:      "Time spent decoding input frames.",
			Buckets:   prometheus.DefBuckets,
		}),
		SinkDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_seconds",
			Help:      "Time spent writing one output format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		SinkBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_bytes_total",
			Help:      "Bytes written per output format.",
		}, []string{"format"}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP API latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open rendering sessions.",
		}),
	}
}

// Install registers h as the global engine, pipeline, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetEngineHooks(h)
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnRenderStart(context.Context, int) {}

func (h *Hooks) OnRenderComplete(_ context.Context, s observability.RenderStats, d time.Duration, err error) {
	outcome := Outcome(s, err)
	h.RenderPasses.WithLabelValues(outcome).Inc()
	h.RenderDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if err != nil {
		return
	}
	h.SceneElements.Set(float64(s.Elements))
	h.LeakedTotal.Add(float64(s.Leaked))
	h.FreedTotal.Add(float64(s.Removed))
	h.LeakAccumulated.Set(float64(s.Accumulated))
}

func (h *Hooks) OnDecodeComplete(_ context.Context, _ int, d time.Duration, _ error) {
	h.DecodeDuration.Observe(d.Seconds())
}

func (h *Hooks) OnSinkStart(context.Context, string) {}

func (h *Hooks) OnSinkComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.SinkDuration.WithLabelValues(format).Observe(d.Seconds())
	if err == nil {
		h.SinkBytes.WithLabelValues(format).Add(float64(size))
	}
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (h *Hooks) OnSession(_ context.Context, delta int) {
	h.ActiveSessions.Add(float64(delta))
}
