// Package metrics defines the bot's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Update outcomes.
const (
	OutcomeHandled = "handled"
	OutcomeFailed  = "failed"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// Forward outcomes.
const (
	ForwardOK      = "ok"
	ForwardFailed  = "failed"
	ForwardDropped = "dropped"
)

// Metrics groups every collector. Components take a *Metrics; a nil value
// is never passed, use New(prometheus.NewRegistry()) in tests.
type Metrics struct {
	UpdatesProcessed *prometheus.CounterVec
	PollErrors       prometheus.Counter
	EntriesAppended  *prometheus.CounterVec
	CommandsHandled  *prometheus.CounterVec
	ForwardsTotal    *prometheus.CounterVec
	ForwardDuration  prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Updates by how the loop finished with them
		UpdatesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gastos_updates_processed_total",
				Help: "Total number of updates processed by outcome",
			},
			[]string{"outcome"}, // handled, failed, panic, skipped
		),

		PollErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gastos_poll_errors_total",
				Help: "Total number of failed long-poll calls",
			},
		),

		EntriesAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gastos_ledger_appends_total",
				Help: "Total number of ledger appends by result",
			},
			[]string{"result", "type"}, // created, duplicate / expense, income
		),

		CommandsHandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gastos_commands_handled_total",
				Help: "Total number of global commands and menu buttons handled",
			},
			[]string{"command"},
		),

		ForwardsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gastos_forwards_total",
				Help: "Total number of budget forwards by outcome",
			},
			[]string{"outcome"}, // ok, failed, dropped
		),

		ForwardDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gastos_forward_duration_seconds",
				Help:    "Duration of budget API import calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
	}
}
