// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the domain counters.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

var (
	// SongRequestsTotal counts song requests by outcome.
	SongRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_song_requests_total",
			Help: "Song requests submitted to session queues",
		},
		[]string{"outcome"},
	)

	// VotesTotal counts vote attempts by outcome.
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_votes_total",
			Help: "Vote attempts on queue entries",
		},
		[]string{"outcome"},
	)

	// StatusChangesTotal counts DJ moderation actions by target status.
	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_status_changes_total",
			Help: "Queue entry status changes",
		},
		[]string{"status"},
	)

	// SearchRequestsTotal counts track searches by outcome.
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_search_requests_total",
			Help: "Track searches proxied to the music provider",
		},
		[]string{"outcome"},
	)

	// SessionsStartedTotal counts sessions created.
	SessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whatssound_sessions_started_total",
			Help: "Sessions started by DJs",
		},
	)

	// JoinCodeCollisionsTotal counts join codes regenerated after a collision.
	JoinCodeCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whatssound_join_code_collisions_total",
			Help: "Join codes that collided with an active session",
		},
	)

	// HTTPRequestDuration tracks handler latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatssound_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// CircuitBreakerState reports breaker state: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whatssound_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state changes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatssound_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// ObserveHTTP records one handled request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
