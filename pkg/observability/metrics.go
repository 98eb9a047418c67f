package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements every hook interface with Prometheus collectors.
type Metrics struct {
	LayoutDuration *prometheus.HistogramVec
	LayoutErrors   *prometheus.CounterVec
	RenderDuration *prometheus.HistogramVec

	CacheRequests *prometheus.CounterVec
	CacheBytes    prometheus.Counter

	KubeRequests *prometheus.CounterVec
	KubeDuration *prometheus.HistogramVec

	Sessions      prometheus.Gauge
	Messages      *prometheus.CounterVec
	FrameBytes    prometheus.Histogram
	FramesDropped prometheus.Counter
}

const namespace = "topoview"

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LayoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent running layout algorithms",
			Buckets:   prometheus.DefBuckets,
		}, []string{"layout"}),
		LayoutErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_errors_total",
			Help:      "Layout runs that returned an error",
		}, []string{"layout"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering artifacts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups and writes by result",
		}, []string{"key_type", "result"}),
		CacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}),
		KubeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kube_requests_total",
			Help:      "Kubernetes API calls by verb, resource and outcome",
		}, []string{"verb", "resource", "status"}),
		KubeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kube_request_duration_seconds",
			Help:      "Kubernetes API call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"verb", "resource"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surface_sessions",
			Help:      "Connected live surface clients",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surface_messages_total",
			Help:      "Client messages handled by type and outcome",
		}, []string{"type", "status"}),
		FrameBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "surface_frame_bytes",
			Help:      "Size of broadcast SVG frames",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surface_frames_dropped_total",
			Help:      "Frames skipped for clients with a full queue",
		}),
	}
	reg.MustRegister(
		m.LayoutDuration, m.LayoutErrors, m.RenderDuration,
		m.CacheRequests, m.CacheBytes,
		m.KubeRequests, m.KubeDuration,
		m.Sessions, m.Messages, m.FrameBytes, m.FramesDropped,
	)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnLayoutStart(context.Context, string, int) {}

func (m *Metrics) OnLayoutComplete(_ context.Context, layout string, d time.Duration, err error) {
	m.LayoutDuration.WithLabelValues(layout).Observe(d.Seconds())
	if err != nil {
		m.LayoutErrors.WithLabelValues(layout).Inc()
	}
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.RenderDuration.WithLabelValues(status(err)).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheRequests.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, verb, resource string, d time.Duration, err error) {
	m.KubeRequests.WithLabelValues(verb, resource, status(err)).Inc()
	m.KubeDuration.WithLabelValues(verb, resource).Observe(d.Seconds())
}

func (m *Metrics) OnSessionChange(clients int) {
	m.Sessions.Set(float64(clients))
}

func (m *Metrics) OnMessage(msgType string, err error) {
	m.Messages.WithLabelValues(msgType, status(err)).Inc()
}

func (m *Metrics) OnFrame(size, dropped int) {
	m.FrameBytes.Observe(float64(size))
	m.FramesDropped.Add(float64(dropped))
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ KubeHooks     = (*Metrics)(nil)
	_ SessionHooks  = (*Metrics)(nil)
)
