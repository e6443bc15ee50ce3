// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	CandidatesSeen    prometheus.Counter
	CandidatesSkipped *prometheus.CounterVec
	ScoreDistribution prometheus.Histogram
	Aggregations      *prometheus.CounterVec

	// Checkpoint metrics
	CheckpointEvaluations *prometheus.CounterVec
	PositionsClosed       prometheus.Counter
	OpenPositions         prometheus.Gauge

	// Confirm metrics
	Broadcasts     *prometheus.CounterVec
	PendingExpired prometheus.Counter

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	QuoteLatency   *prometheus.HistogramVec

	// Sweep metrics
	SweepRunsTotal *prometheus.CounterVec
	SweepDuration  *prometheus.HistogramVec
	SweepsSkipped  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSweep *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "risk_ladder"
	}
	f := promauto.With(reg)

	return &Metrics{
		CandidatesSeen: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_seen_total",
			Help:      "Total number of pool candidates returned by the source",
		}),
		CandidatesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_skipped_total",
			Help:      "Candidates dropped before aggregation by reason",
		}, []string{"reason"}),
		ScoreDistribution: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		Aggregations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "aggregations_total",
			Help:      "Aggregation outcomes by outcome and reason",
		}, []string{"outcome", "reason"}),

		CheckpointEvaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "evaluations_total",
			Help:      "Checkpoint evaluations by status",
		}, []string{"status"}),
		PositionsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "positions_closed_total",
			Help:      "Total number of positions fully resolved",
		}),
		OpenPositions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "open_positions",
			Help:      "Open positions seen by the last checkpoint sweep",
		}),

		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "confirm",
			Name:      "broadcasts_total",
			Help:      "Broadcast attempts by action kind and status",
		}, []string{"kind", "status"}),
		PendingExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "confirm",
			Name:      "pending_expired_total",
			Help:      "Pending positions expired without confirmation",
		}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		QuoteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "request_latency_seconds",
			Help:      "Jupiter request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		SweepRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweep runs by task and status",
		}, []string{"task", "status"}),
		SweepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Sweep duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
		SweepsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "skipped_total",
			Help:      "Ticks skipped because the previous run was still in flight",
		}, []string{"task"}),

		LastSuccessfulSweep: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of the last successful sweep by task",
		}, []string{"task"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordCandidates adds n to the candidates seen counter.
func RecordCandidates(n int) {
	DefaultMetrics.CandidatesSeen.Add(float64(n))
}

// RecordSkip records a candidate dropped before aggregation.
func RecordSkip(reason string) {
	DefaultMetrics.CandidatesSkipped.WithLabelValues(reason).Inc()
}

// RecordScore observes a computed risk score.
func RecordScore(score int) {
	DefaultMetrics.ScoreDistribution.Observe(float64(score))
}

// RecordAggregation records an aggregation outcome.
func RecordAggregation(outcome, reason string) {
	DefaultMetrics.Aggregations.WithLabelValues(outcome, reason).Inc()
}

// RecordCheckpoint records a checkpoint evaluation status.
func RecordCheckpoint(status string) {
	DefaultMetrics.CheckpointEvaluations.WithLabelValues(status).Inc()
}

// RecordPositionClosed increments the closed positions counter.
func RecordPositionClosed() {
	DefaultMetrics.PositionsClosed.Inc()
}

// SetOpenPositions updates the open positions gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// RecordBroadcast records a broadcast attempt.
func RecordBroadcast(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.Broadcasts.WithLabelValues(kind, status).Inc()
}

// RecordExpired adds n to the expired pending counter.
func RecordExpired(n int) {
	DefaultMetrics.PendingExpired.Add(float64(n))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordQuoteLatency records Jupiter request latency.
func RecordQuoteLatency(endpoint string, seconds float64) {
	DefaultMetrics.QuoteLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordSweep records a sweep run.
func RecordSweep(task, status string, durationSeconds float64) {
	DefaultMetrics.SweepRunsTotal.WithLabelValues(task, status).Inc()
	DefaultMetrics.SweepDuration.WithLabelValues(task).Observe(durationSeconds)
}

// RecordSweepSkipped records a tick dropped by the in-flight guard.
func RecordSweepSkipped(task string) {
	DefaultMetrics.SweepsSkipped.WithLabelValues(task).Inc()
}

// MarkSweepSuccess stamps the last successful sweep time.
func MarkSweepSuccess(task string, unixSeconds int64) {
	DefaultMetrics.LastSuccessfulSweep.WithLabelValues(task).Set(float64(unixSeconds))
}
