package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type outcome string

const (
	outcomeStored    outcome = "stored"
	outcomeSkipped   outcome = "skipped"
	outcomeShed      outcome = "shed"
	outcomeStoreFail outcome = "store_failed"
)

// Metrics counts tracker outcomes per audit action and exposes the breaker position.
type Metrics struct {
	outcomes *prometheus.CounterVec
	open     prometheus.Gauge
}

// NewMetrics registers the ops tracker collectors with reg. A nil reg uses
// the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carematch",
			Subsystem: "audit_ops",
			Name:      "events_total",
			Help:      "Operational audit events by action and outcome (stored, skipped, shed, store_failed).",
		}, []string{"action", "outcome"}),
		open: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "carematch",
			Subsystem: "audit_ops",
			Name:      "breaker_open",
			Help:      "1 while the ops audit breaker is shedding events.",
		}),
	}
}

func (m *Metrics) record(action string, o outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(action, string(o)).Inc()
}

func (m *Metrics) breakerOpen(open bool) {
	if m == nil {
		return
	}
	var v float64
	if open {
		v = 1
	}
	m.open.Set(v)
}
