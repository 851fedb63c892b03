package monitoring

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buildwatch"

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionDuration *prometheus.HistogramVec
	SessionExits    *prometheus.CounterVec
	SpawnErrors     prometheus.Counter

	// Routing metrics
	LinesRouted *prometheus.CounterVec
	QueueDepth  prometheus.GaugeFunc
	queueLen    atomic.Pointer[func() int]

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a collector backed by its own registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		SessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total number of child processes launched",
			},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of child processes currently running",
			},
		),
		SessionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_duration_seconds",
				Help:      "Wall time from launch to exit",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900, 3600},
			},
			[]string{"outcome"},
		),
		SessionExits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_exits_total",
				Help:      "Total number of child exits by outcome",
			},
			[]string{"outcome"},
		),
		SpawnErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spawn_errors_total",
				Help:      "Total number of commands that failed to launch",
			},
		),
		LinesRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_routed_total",
				Help:      "Total number of output lines by destination",
			},
			[]string{"destination"},
		),
	}

	m.QueueDepth = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Events captured and not yet drained by the consumer",
		},
		func() float64 {
			if length := m.queueLen.Load(); length != nil {
				return float64((*length)())
			}
			return 0
		},
	)

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Supervisor uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SessionStarted records a successful launch
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
	m.SessionsActive.Inc()
}

// SessionEnded records a child exit. outcome is "ok", "failed" or "killed".
func (m *Metrics) SessionEnded(outcome string, ran time.Duration) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionExits.WithLabelValues(outcome).Inc()
	m.SessionDuration.WithLabelValues(outcome).Observe(ran.Seconds())
}

// SpawnFailed records a command that could not be launched
func (m *Metrics) SpawnFailed() {
	if m == nil {
		return
	}
	m.SpawnErrors.Inc()
}

// LineRouted counts one routed line for destination
func (m *Metrics) LineRouted(destination string) {
	if m == nil {
		return
	}
	m.LinesRouted.WithLabelValues(destination).Inc()
}

// TrackQueue makes queue_depth report length() at scrape time. A later call
// replaces the earlier source.
func (m *Metrics) TrackQueue(length func() int) {
	if m == nil || length == nil {
		return
	}
	m.queueLen.Store(&length)
}

// Timer measures a session's run time
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer starts a timer that reports into metrics
func NewTimer(metrics *Metrics) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
	}
}

// Stop stops the timer and records the session exit
func (t *Timer) Stop(outcome string) {
	t.metrics.SessionEnded(outcome, time.Since(t.start))
}
