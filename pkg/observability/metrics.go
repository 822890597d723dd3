package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the onboarding core.
type Metrics struct {
	Assertions      *prometheus.CounterVec
	StoreOpDuration *prometheus.HistogramVec
	SessionsRead    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer for the process-global
// registry, or a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Assertions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboard_field_assertions_total",
				Help: "Total number of field assertions by field key and outcome",
			},
			[]string{"field_key", "outcome"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "onboard_store_op_duration_seconds",
				Help: "Duration of profile store operations",
			},
			[]string{"op"},
		),
		SessionsRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "onboard_session_reads_total",
				Help: "Total number of session snapshot reads",
			},
		),
	}
	reg.MustRegister(m.Assertions, m.StoreOpDuration, m.SessionsRead)
	return m
}

// ObserveAssert records the outcome of one assertion.
// Outcome is one of "ok", "validation_error", "unknown_field", "persistence_error".
func (m *Metrics) ObserveAssert(fieldKey, outcome string) {
	m.Assertions.WithLabelValues(fieldKey, outcome).Inc()
}

// TimeStoreOp returns a done func that records elapsed time for an op.
func (m *Metrics) TimeStoreOp(op string) func() {
	start := time.Now()
	return func() {
		m.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
