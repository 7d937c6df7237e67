// Package metrics exposes Prometheus instrumentation for the download path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	DownloadsTotal    *prometheus.CounterVec
	DownloadBytes     prometheus.Counter
	DownloadDuration  prometheus.Histogram
	DownloadsInFlight prometheus.Gauge
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		DownloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booklib_downloads_total",
				Help: "Total number of download requests by outcome and client source",
			},
			[]string{"status", "source"},
		),
		DownloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "booklib_download_bytes_total",
				Help: "Total bytes streamed to clients",
			},
		),
		DownloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "booklib_download_duration_seconds",
				Help:    "Download stream duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		DownloadsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "booklib_downloads_in_flight",
				Help: "Number of downloads currently streaming",
			},
		),
	}

	registry.MustRegister(
		m.DownloadsTotal,
		m.DownloadBytes,
		m.DownloadDuration,
		m.DownloadsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
