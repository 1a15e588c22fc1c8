// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	AuthEventsTotal *prometheus.CounterVec
	PostEventsTotal *prometheus.CounterVec
	UploadsTotal    *prometheus.CounterVec
	UploadBytes     *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them, together with the Go
// runtime and process collectors, on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkup_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_auth_events_total",
				Help: "Registrations and logins by outcome",
			},
			[]string{"event", "outcome"},
		),
		PostEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_post_events_total",
				Help: "Successful post mutations by kind",
			},
			[]string{"event"},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_uploads_total",
				Help: "Image uploads by storage backend and status",
			},
			[]string{"backend", "status"},
		),
		UploadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkup_upload_size_bytes",
				Help:    "Size of stored uploads in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.PostEventsTotal,
		m.UploadsTotal,
		m.UploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one finished request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// AuthEvent counts a register or login attempt.
func (m *Metrics) AuthEvent(event, outcome string) {
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// PostEvent counts a successful post mutation.
func (m *Metrics) PostEvent(event string) {
	m.PostEventsTotal.WithLabelValues(event).Inc()
}

// RecordUpload counts an upload attempt and, on success, its size.
func (m *Metrics) RecordUpload(backend string, size int64, err error) {
	status := OutcomeSuccess
	if err != nil {
		status = OutcomeFailure
	}
	m.UploadsTotal.WithLabelValues(backend, status).Inc()
	if err == nil {
		m.UploadBytes.WithLabelValues(backend).Observe(float64(size))
	}
}
