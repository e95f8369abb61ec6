package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks compliance writes per action.
type Metrics struct {
	writes  *prometheus.CounterVec
	latency prometheus.Histogram
}

// NewMetrics registers the collectors with reg, or the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carematch",
			Subsystem: "audit_compliance",
			Name:      "writes_total",
			Help:      "Compliance audit writes by action and result (ok, failed, rejected).",
		}, []string{"action", "result"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carematch",
			Subsystem: "audit_compliance",
			Name:      "write_seconds",
			Help:      "Latency of compliance audit writes.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}

func (m *Metrics) rejected(action string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(action, "rejected").Inc()
}

func (m *Metrics) persisted(action string, err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.writes.WithLabelValues(action, result).Inc()
	m.latency.Observe(took.Seconds())
}
