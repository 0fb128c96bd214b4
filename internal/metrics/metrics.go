// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	authFailures prometheus.Counter
	uploads      prometheus.Counter
	uploadBytes  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cvforge_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cvforge_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cvforge_auth_failures_total",
			Help: "Rejected logins and bearer tokens.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cvforge_uploads_total",
			Help: "Files attached to resumes.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cvforge_upload_bytes_total",
			Help: "Bytes of files attached to resumes.",
		}),
	}

	reg.MustRegister(c.requests, c.duration, c.authFailures, c.uploads, c.uploadBytes)
	return c
}

// RecordRequest records a completed HTTP request. route is the router
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordAuthFailure counts a rejected credential or token.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordUpload counts an accepted upload and its size in bytes.
func (c *Collector) RecordUpload(size int64) {
	c.uploads.Inc()
	if size > 0 {
		c.uploadBytes.Add(float64(size))
	}
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
