// Package metrics holds the Prometheus collectors for the API. Each Metrics
// owns its registry so tests can build as many as they like.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rewind"

// Upload outcomes.
const (
	UploadSuccess        = "success"
	UploadRejected       = "rejected"
	UploadProcessFailed  = "processing_failed"
	UploadTimeout        = "timeout"
	UploadStorageFailed  = "storage_failed"
	UploadDatabaseFailed = "database_failed"
)

type Metrics struct {
	registry           *prometheus.Registry
	RequestTotal       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	Uploads            *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	BytesSaved         prometheus.Counter
	AuthFailures       *prometheus.CounterVec
	RateLimitRejected  *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo uploads by outcome.",
		}, []string{"result"}),
		ProcessingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "photo_processing_duration_seconds",
			Help:      "Time spent producing the main image and thumbnail.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
		}, []string{"style"}),
		BytesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_bytes_saved_total",
			Help:      "Bytes saved by recompressing uploads.",
		}),
		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Requests rejected by authentication.",
		}, []string{"reason"}),
		RateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by rate limiting.",
		}, []string{"route"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Photo events handed to the broker.",
		}, []string{"type", "result"}),
	}
	registry.MustRegister(
		m.RequestTotal,
		m.RequestDuration,
		m.Uploads,
		m.ProcessingDuration,
		m.BytesSaved,
		m.AuthFailures,
		m.RateLimitRejected,
		m.EventsPublished,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSavings adds the bytes saved by one upload. Growth is not counted.
func (m *Metrics) RecordSavings(original, compressed int) {
	if saved := original - compressed; saved > 0 {
		m.BytesSaved.Add(float64(saved))
	}
}
