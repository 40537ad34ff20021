// Package metrics holds the engine's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ExplorerRequestsTotal counts explorer API requests by endpoint and
	// outcome ("success", "rate_limited", "error").
	ExplorerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_engine_explorer_requests_total",
			Help: "Explorer API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	// ExplorerRequestDuration observes explorer API request latency.
	ExplorerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_engine_explorer_request_duration_seconds",
			Help:    "Explorer API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// BalanceSnapshotHits counts balance refresh units served from the
	// snapshot store or deduplicated against an in-flight fetch.
	BalanceSnapshotHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_engine_balance_snapshot_hits_total",
		Help: "Balance refresh units satisfied without a new fetch.",
	})

	// BalanceSnapshotMisses counts balance refresh units that triggered a
	// fetch.
	BalanceSnapshotMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_engine_balance_snapshot_misses_total",
		Help: "Balance refresh units that required a fetch.",
	})

	// PriceRefreshTotal counts price refresh rounds by outcome.
	PriceRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_engine_price_refresh_total",
			Help: "Price refresh rounds by outcome.",
		},
		[]string{"outcome"},
	)
)

// MustRegisterMetrics registers every collector with the default registry.
// Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		ExplorerRequestsTotal,
		ExplorerRequestDuration,
		BalanceSnapshotHits,
		BalanceSnapshotMisses,
		PriceRefreshTotal,
	)
}
