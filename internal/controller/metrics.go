package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	recorded *prometheus.CounterVec
	rejected *prometheus.CounterVec
	enabled  prometheus.Gauge
	resets   prometheus.Counter
}

// newMetrics creates the controller collectors and registers them with reg.
// A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowbench_trials_recorded_total",
			Help: "Trials recorded by driver, application and outcome",
		}, []string{"driver", "application", "outcome"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowbench_trials_rejected_total",
			Help: "Trial submissions rejected by reason",
		}, []string{"reason"}),
		enabled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shadowbench_fault_injection_enabled",
			Help: "1 while fault injection is enabled",
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowbench_results_resets_total",
			Help: "Number of result store resets",
		}),
	}
}
