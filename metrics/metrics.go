// Package metrics exposes kernel instrumentation as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the kernel's Prometheus collectors.
type Metrics struct {
	DispatchesTotal   *prometheus.CounterVec
	DispatchDuration  prometheus.Histogram
	SkippedTicksTotal prometheus.Counter
	TriggerFiresTotal prometheus.Counter
	EventsTotal       *prometheus.CounterVec
	ActiveAgents      prometheus.Gauge
	UnresponsiveCount prometheus.Gauge
	ShutdownPhaseTime *prometheus.HistogramVec
}

// New registers the kernel collectors with the given registerer. Pass
// prometheus.DefaultRegisterer for the usual global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentkernel_dispatches_total",
			Help: "Background self-prompt dispatches by outcome.",
		}, []string{"outcome"}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentkernel_dispatch_duration_seconds",
			Help:    "Duration of background dispatches.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		SkippedTicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentkernel_skipped_ticks_total",
			Help: "Schedule wakeups skipped because the agent was busy.",
		}),
		TriggerFiresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentkernel_trigger_fires_total",
			Help: "Trigger activations produced by the event engine.",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agentkernel_events_total",
			Help: "Events published to the bus by target kind.",
		}, []string{"target"}),
		ActiveAgents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentkernel_active_agents",
			Help: "Agents currently in the running state.",
		}),
		UnresponsiveCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentkernel_unresponsive_agents",
			Help: "Agents past their heartbeat timeout at the last check.",
		}),
		ShutdownPhaseTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agentkernel_shutdown_phase_duration_seconds",
			Help:    "Duration of graceful shutdown phases.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
	}
}

// ObserveDispatch records one dispatch outcome.
func (m *Metrics) ObserveDispatch(dur time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	m.DispatchesTotal.WithLabelValues(outcome).Inc()
	m.DispatchDuration.Observe(dur.Seconds())
}
