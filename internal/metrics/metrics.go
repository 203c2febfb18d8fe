package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Engine metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_engine_commands_total",
			Help: "Total number of commands consumed from the stream",
		},
		[]string{"kind"},
	)

	OrderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_engine_order_outcomes_total",
			Help: "Order command outcomes by callback status",
		},
		[]string{"status"},
	)

	PositionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_engine_positions_closed_total",
			Help: "Positions closed by reason",
		},
		[]string{"reason"},
	)

	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hermes_engine_open_positions",
			Help: "Number of currently open positions",
		},
	)

	DurableWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_engine_durable_write_failures_total",
			Help: "Fire-and-forget durable write failures by target",
		},
		[]string{"target"},
	)

	MalformedEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hermes_engine_malformed_entries_total",
			Help: "Stream entries skipped because they could not be decoded",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hermes_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hermes_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"worker"},
	)
)

// Register registers all collectors with the default registry.
// Safe to call once at startup.
func Register() {
	prometheus.MustRegister(
		CommandsTotal,
		OrderOutcomes,
		PositionsClosed,
		OpenPositions,
		DurableWriteFailures,
		MalformedEntries,
		WorkerExecutions,
		WorkerDuration,
	)
}
