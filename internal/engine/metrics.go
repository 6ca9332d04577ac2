package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes used as the "outcome" label.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	Commands   *prometheus.CounterVec
	Violations *prometheus.CounterVec
	QueueDepth prometheus.Gauge
	Scrolls    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatdom",
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Commands applied, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatdom",
			Subsystem: "engine",
			Name:      "invariant_violations_total",
			Help:      "Invariant violations found after a command, by rule.",
		}, []string{"rule"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatdom",
			Subsystem: "engine",
			Name:      "queue_depth",
			Help:      "Commands waiting to be applied.",
		}),
		Scrolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatdom",
			Subsystem: "engine",
			Name:      "scrolls_total",
			Help:      "Deferred scroll requests that reached the host.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Commands, m.Violations, m.QueueDepth, m.Scrolls)
	}
	return m
}

func (m *Metrics) observe(kind, outcome string) {
	m.Commands.WithLabelValues(kind, outcome).Inc()
}
