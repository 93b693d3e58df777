package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metroflow",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metroflow",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	filterActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metroflow",
			Name:      "filter_actions_total",
			Help:      "Total number of filter actions submitted from the page",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpDuration,
		filterActions,
	)
}

// handlePrometheusMetrics exposes Prometheus metrics.
func (s *Server) handlePrometheusMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
