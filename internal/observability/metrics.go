package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Oracle call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeDisabled  = "disabled"
	OutcomeTransport = "transport"
	OutcomeMalformed = "malformed"
	OutcomeThrottled = "throttled"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thrift_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thrift_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// OracleRequests counts ranking oracle calls by outcome.
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thrift_oracle_requests_total",
		Help: "Ranking oracle calls by outcome",
	}, []string{"outcome"})

	// OracleLatency records the round trip of ranking oracle calls.
	OracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thrift_oracle_latency_seconds",
		Help:    "Ranking oracle latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	})

	// RecommendationsDropped counts ranked ids that did not resolve to an available item.
	RecommendationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thrift_recommendations_dropped_total",
		Help: "Ranked ids dropped during reconciliation",
	}, []string{"reason"})

	// StaleRecommendations counts superseded or torn-down refresh results.
	StaleRecommendations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thrift_recommendations_stale_total",
		Help: "Recommendation results discarded because a newer request superseded them",
	})

	// WishlistPersistFailures counts failed wishlist mirror writes and reads.
	WishlistPersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thrift_wishlist_persist_failures_total",
		Help: "Wishlist persistence failures by operation",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thrift_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thrift_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
