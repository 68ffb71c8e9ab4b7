// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package metrics provides Prometheus instrumentation for the
// evaluation engine: run throughput, alert generation by kind and
// severity, delivery outcomes per channel, and store errors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunDuration tracks end-to-end evaluation run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tuskwatch_run_duration_seconds",
			Help:    "Duration of evaluation runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AnimalsChecked counts animals evaluated across all runs.
	AnimalsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tuskwatch_animals_checked_total",
			Help: "Total number of animals evaluated",
		},
	)

	// AnimalErrors counts per-animal evaluation failures.
	AnimalErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tuskwatch_animal_errors_total",
			Help: "Total number of per-animal evaluation errors",
		},
	)

	// AlertsGenerated counts newly created alerts by kind and severity.
	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuskwatch_alerts_generated_total",
			Help: "Total number of alerts created",
		},
		[]string{"kind", "severity"},
	)

	// AlertsResolved counts alerts auto-resolved by the run.
	AlertsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tuskwatch_alerts_resolved_total",
			Help: "Total number of alerts auto-resolved on reversal",
		},
	)

	// Deliveries counts notification delivery attempts by channel and outcome.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuskwatch_deliveries_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"channel", "outcome"}, // outcome: "success", "failure"
	)

	// StoreErrors counts persistence failures by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuskwatch_store_errors_total",
			Help: "Total number of store operation errors",
		},
		[]string{"operation"},
	)

	// BreakerState exposes circuit breaker state per channel
	// (0 = closed, 1 = half-open, 2 = open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tuskwatch_channel_breaker_state",
			Help: "Circuit breaker state per notification channel",
		},
		[]string{"channel"},
	)
)

// RecordDelivery increments the delivery counter for one attempt.
func RecordDelivery(channel string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	Deliveries.WithLabelValues(channel, outcome).Inc()
}
