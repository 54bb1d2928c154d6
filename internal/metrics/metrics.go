package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trade tracker.
type Metrics struct {
	UpdateCycles  prometheus.Counter
	TradesMutated prometheus.Counter
	TradeOutcomes *prometheus.CounterVec // labels: outcome
	FetchErrors   prometheus.Counter
	CycleDuration prometheus.Histogram

	// Ledger composition, refreshed once per cycle.
	PendingTrades prometheus.Gauge
	OpenTrades    prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all tracker metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		UpdateCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_update_cycles_total",
			Help: "Number of UpdateStatus invocations.",
		}),
		TradesMutated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_trades_mutated_total",
			Help: "Number of trades whose status changed across all cycles.",
		}),
		TradeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_trade_outcomes_total",
			Help: "Per-trade evaluation outcomes by kind.",
		}, []string{"outcome"}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_fetch_errors_total",
			Help: "Market data fetches that failed after retries.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_cycle_duration_seconds",
			Help:    "Wall time of one full UpdateStatus cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		PendingTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_pending_trades",
			Help: "Trades currently waiting for entry confirmation.",
		}),
		OpenTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_open_trades",
			Help: "Trades currently open.",
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.UpdateCycles, m.TradesMutated, m.TradeOutcomes, m.FetchErrors,
		m.CycleDuration, m.PendingTrades, m.OpenTrades,
	)
	return m
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
