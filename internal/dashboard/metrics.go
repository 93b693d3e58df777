package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metroflow",
			Name:      "load_cycles_total",
			Help:      "Total number of dashboard load cycles",
		},
		[]string{"trigger", "outcome"},
	)

	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metroflow",
			Name:      "load_cycle_duration_seconds",
			Help:      "Duration of dashboard load cycles in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "metroflow",
			Name:      "last_success_timestamp",
			Help:      "Timestamp of the last successful load cycle (Unix timestamp)",
		},
	)

	upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metroflow",
			Name:      "upstream_errors_total",
			Help:      "Total number of failed upstream requests",
		},
		[]string{"endpoint"},
	)

	renderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metroflow",
			Name:      "render_errors_total",
			Help:      "Total number of failed presentation updates",
		},
		[]string{"target"},
	)

	trendPoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "metroflow",
			Name:      "trend_points",
			Help:      "Number of points in the rendered trend chart",
		},
	)
)

func init() {
	prometheus.MustRegister(
		cyclesTotal,
		cycleDuration,
		lastSuccess,
		upstreamErrors,
		renderErrors,
		trendPoints,
	)
}
