// Package metrics provides Prometheus metrics for the dashboard backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ops_awareness"

var (
	// RefreshTicks counts feed synchronizer refreshes.
	RefreshTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_refresh_ticks_total",
		Help:      "Total number of feed refresh ticks.",
	})

	// RefreshErrors counts refreshes that failed to load a snapshot.
	RefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_refresh_errors_total",
		Help:      "Total number of failed feed refreshes.",
	})

	// EscalationOutcomes counts panic-button escalations by terminal state.
	EscalationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escalations_total",
		Help:      "Total number of emergency escalations by outcome.",
	}, []string{"outcome"})

	// ActiveAlerts tracks the true (untruncated) active alert count.
	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_alerts",
		Help:      "Number of active-state records qualifying for the alert banner.",
	})

	// SnapshotRecords tracks snapshot sizes by record kind.
	SnapshotRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_records",
		Help:      "Number of records in the latest snapshot by kind.",
	}, []string{"kind"})
)
