// Package metrics exposes build and HTTP counters on an isolated Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build results recorded in BuildsTotal.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds the d2chub collectors. Each instance owns its registry so
// tests and multiple servers never collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	BuildsTotal          *prometheus.CounterVec
	BuildDurationSeconds prometheus.Histogram
	IndexItems           prometheus.Gauge
	SkippedFilesTotal    prometheus.Counter

	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec
}

// New creates a Metrics instance with every collector registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "d2chub_builds_total",
				Help: "Total number of index builds by result.",
			},
			[]string{"result"},
		),
		BuildDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "d2chub_build_duration_seconds",
				Help:    "Duration of index builds in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
		),
		IndexItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "d2chub_index_items",
				Help: "Number of items in the current index.",
			},
		),
		SkippedFilesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "d2chub_skipped_files_total",
				Help: "Total number of content files skipped by permissive builds.",
			},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "d2chub_http_requests_total",
				Help: "Total number of API requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "d2chub_http_request_duration_seconds",
				Help:    "Duration of API requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.BuildsTotal,
		m.BuildDurationSeconds,
		m.IndexItems,
		m.SkippedFilesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
	)
	return m
}

// ObserveBuild records one build. items and skipped are ignored for failed builds.
func (m *Metrics) ObserveBuild(d time.Duration, err error, items, skipped int) {
	m.BuildDurationSeconds.Observe(d.Seconds())
	if err != nil {
		m.BuildsTotal.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.BuildsTotal.WithLabelValues(ResultOK).Inc()
	m.IndexItems.Set(float64(items))
	m.SkippedFilesTotal.Add(float64(skipped))
}

// WatchClients exports n as the live event-stream client gauge.
func (m *Metrics) WatchClients(n func() int) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "d2chub_sse_clients",
			Help: "Number of connected event-stream clients.",
		},
		func() float64 { return float64(n()) },
	))
}

// Handler returns an http.Handler that serves the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
