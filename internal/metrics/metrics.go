// Package metrics exposes prometheus instrumentation for the reminder engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OccurrencesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_occurrences_generated_total",
		Help: "Occurrences created by rule application and regeneration",
	})

	IntakeTaken = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_intake_taken_total",
		Help: "Occurrences marked taken",
	})

	IntakeMissed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_intake_missed_total",
		Help: "Occurrences reconciled to missed",
	})

	IntakeSnoozed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_intake_snoozed_total",
		Help: "Snooze operations performed",
	})

	ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_reconcile_runs_total",
		Help: "Overdue reconciliation passes",
	})

	AlertsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_alerts_requested_total",
		Help: "Alerts handed to the notifier",
	})

	AlertsCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_alerts_canceled_total",
		Help: "Alert cancellations handed to the notifier",
	})

	AlertsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_alerts_delivered_total",
		Help: "Alerts successfully delivered by a sender",
	})

	NotifierFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosetrack_notifier_failures_total",
		Help: "Notifier calls that failed; never propagated to callers",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dosetrack_http_requests_total",
		Help: "HTTP requests by method, route, and status",
	}, []string{"method", "route", "status"})
)

// Handler serves the prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
