// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigstage_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gigstage_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	fileCleanups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigstage_file_cleanups_total",
		Help: "Stored file deletions by source and result",
	}, []string{"source", "result"})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gigstage_worker_jobs_total",
		Help: "Worker jobs by type and result",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveCleanup counts a file deletion attempt. source is "inline" or "worker".
func ObserveCleanup(source, result string) {
	fileCleanups.WithLabelValues(source, result).Inc()
}

// ObserveJob counts a processed worker job.
func ObserveJob(jobType, result string) {
	jobsProcessed.WithLabelValues(jobType, result).Inc()
}
