package http

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Default histogram buckets for exchange latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the Prometheus collectors updated by a SessionManager.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. It panics
// if registration fails, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courier_requests_total",
			Help: "Total dispatched requests by method and outcome.",
		}, []string{"method", "outcome"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courier_request_duration_seconds",
			Help:    "Transport exchange latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courier_requests_in_flight",
			Help: "Number of transport exchanges currently running.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RequestsInFlight)
	return m
}

// NormalizeMethod maps a method to a bounded label value; anything outside
// the supported set becomes "other".
func NormalizeMethod(method string) string {
	if Method(method).Valid() {
		return method
	}
	return "other"
}
