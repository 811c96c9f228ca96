package musicapi

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"

	"whatssound/internal/metrics"
)

// BreakerSettings tunes when the breaker opens and how long it stays open.
type BreakerSettings struct {
	Name         string
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	Timeout      time.Duration
}

// DefaultBreakerSettings opens at 60% failures over at least 5 requests and
// probes again after 30 seconds.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		MinRequests:  5,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
	}
}

// BreakerClient wraps a TrackSearcher so a failing provider is skipped
// instead of tying up request handlers until their timeout.
type BreakerClient struct {
	next TrackSearcher
	cb   *gobreaker.CircuitBreaker[[]Track]
}

// NewBreakerClient wraps next.
func NewBreakerClient(next TrackSearcher, settings BreakerSettings) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Track](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// A cancelled client request says nothing about the provider.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerClient{next: next, cb: cb}
}

// SearchTracks delegates to the wrapped searcher unless the circuit is open.
func (b *BreakerClient) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	tracks, err := b.cb.Execute(func() ([]Track, error) {
		return b.next.SearchTracks(ctx, query, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrProviderUnavailable
	}
	return tracks, err
}

// State exposes the breaker state, reported by the /health endpoint.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
