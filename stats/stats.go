// Package stats counts request outcomes per mode with Prometheus
// collectors and keeps running totals of connection successes and
// failures.
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dispatch"

// Stats implements route.Recorder.
type Stats struct {
	requests *prometheus.CounterVec
	chained  *prometheus.CounterVec
	inFlight prometheus.Gauge

	succeeded atomic.Int64
	failed    atomic.Int64
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Stats {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Stats{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of finished requests by mode and result.",
			},
			[]string{"mode", "result"},
		),
		chained: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chained_total",
				Help:      "Total number of chained requests by mode.",
			},
			[]string{"mode"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently running.",
			},
		),
	}
}

// Succeeded records a request whose response was read completely.
func (s *Stats) Succeeded(mode string) {
	s.succeeded.Add(1)
	s.requests.WithLabelValues(mode, "success").Inc()
}

// Failed records a request that failed at the transport level.
func (s *Stats) Failed(mode string) {
	s.failed.Add(1)
	s.requests.WithLabelValues(mode, "failure").Inc()
}

// Chained records a request scheduled by a completion handler.
func (s *Stats) Chained(mode string) {
	s.chained.WithLabelValues(mode).Inc()
}

// Started and Finished bracket a running request.
func (s *Stats) Started()  { s.inFlight.Inc() }
func (s *Stats) Finished() { s.inFlight.Dec() }

// Totals returns the connection counters across all modes.
func (s *Stats) Totals() (succeeded, failed int64) {
	return s.succeeded.Load(), s.failed.Load()
}
