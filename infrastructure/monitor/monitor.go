// Package monitor collects Prometheus metrics for the fee engine on a
// private registry.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor owns the engine's metric collectors.
type Monitor struct {
	registry *prometheus.Registry

	feeBps           *prometheus.GaugeVec
	tradesStarted    prometheus.Counter
	tradesSettled    prometheus.Counter
	adjustment       prometheus.Gauge
	snapshotRefresh  *prometheus.CounterVec
	costLevel        prometheus.Gauge
	solverIterations prometheus.Histogram
	solverFailures   prometheus.Counter
}

// Config names the metric namespace.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns the fee-engine namespace.
func DefaultConfig() Config {
	return Config{Namespace: "fe", Subsystem: "engine"}
}

// New creates a Monitor with its own registry.
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,
		feeBps: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fee_bps",
			Help:      "Last computed fee in basis points per pool",
		}, []string{"pool"}),
		tradesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trades_started_total",
			Help:      "Trade contexts opened",
		}),
		tradesSettled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trades_settled_total",
			Help:      "Trade contexts consumed by post-trade adjustment",
		}),
		adjustment: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "last_adjustment",
			Help:      "Last post-trade adjustment (approximate float view)",
		}),
		snapshotRefresh: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "snapshot_refresh_total",
			Help:      "Market snapshot refreshes per pool",
		}, []string{"pool"}),
		costLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cost_level",
			Help:      "Smoothed transaction-cost level (approximate float view)",
		}),
		solverIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "solver_iterations",
			Help:      "Iterations used by the implied-volatility solver",
			Buckets:   prometheus.LinearBuckets(1, 4, 9),
		}),
		solverFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "solver_nonconverged_total",
			Help:      "Solver runs that exhausted the iteration budget",
		}),
	}
}

// RecordFee records a computed fee for a pool.
func (m *Monitor) RecordFee(pool string, feeBps float64) {
	m.feeBps.WithLabelValues(pool).Set(feeBps)
	m.tradesStarted.Inc()
}

// RecordSettlement records a consumed trade context.
func (m *Monitor) RecordSettlement(adjustment float64) {
	m.tradesSettled.Inc()
	m.adjustment.Set(adjustment)
}

// RecordSnapshot counts a snapshot refresh.
func (m *Monitor) RecordSnapshot(pool string) {
	m.snapshotRefresh.WithLabelValues(pool).Inc()
}

// SetCostLevel publishes the smoothed cost level.
func (m *Monitor) SetCostLevel(level float64) {
	m.costLevel.Set(level)
}

// RecordSolve records one solver run.
func (m *Monitor) RecordSolve(iterations int, converged bool) {
	m.solverIterations.Observe(float64(iterations))
	if !converged {
		m.solverFailures.Inc()
	}
}

// Handler exposes the registry for scraping.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
