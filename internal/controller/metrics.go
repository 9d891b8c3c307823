package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

type metrics struct {
	passengers         prometheus.Gauge
	historyEntries     prometheus.Gauge
	capacityAlerts     prometheus.Counter
	negativeDecrements prometheus.Counter
	remoteOps          *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, unit string) *metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"unit": unit}

	return &metrics{
		passengers: f.NewGauge(prometheus.GaugeOpts{
			Name:        "cobus_passengers",
			Help:        "Passengers currently aboard.",
			ConstLabels: labels,
		}),
		historyEntries: f.NewGauge(prometheus.GaugeOpts{
			Name:        "cobus_history_entries",
			Help:        "Snapshots held in the local history.",
			ConstLabels: labels,
		}),
		capacityAlerts: f.NewCounter(prometheus.CounterOpts{
			Name:        "cobus_capacity_alerts_total",
			Help:        "Over-capacity alerts raised.",
			ConstLabels: labels,
		}),
		negativeDecrements: f.NewCounter(prometheus.CounterOpts{
			Name:        "cobus_negative_decrements_total",
			Help:        "Removals that exceeded the passengers aboard.",
			ConstLabels: labels,
		}),
		remoteOps: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "cobus_remote_operations_total",
			Help:        "Remote store calls by operation and outcome.",
			ConstLabels: labels,
		}, []string{"op", "status"}),
	}
}
