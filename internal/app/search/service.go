package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"whatssound/internal/app"
	"whatssound/internal/metrics"
	"whatssound/internal/musicapi"
	"whatssound/internal/recent"
	"whatssound/internal/validate"
)

const (
	// DefaultLimit applies when the caller gives no limit.
	DefaultLimit = 25
	// MaxLimit caps a single page of results.
	MaxLimit = 50
)

// Result is one page of track hits for a cleaned query.
type Result struct {
	Query  string           `json:"query"`
	Tracks []musicapi.Track `json:"tracks"`
}

// Service proxies track search and remembers what each owner searched for.
type Service interface {
	Search(ctx context.Context, owner, query string, limit int) (Result, error)
	Recent(ctx context.Context, owner string) ([]string, error)
	ClearRecent(ctx context.Context, owner string) error
}

type service struct {
	searcher musicapi.TrackSearcher
	recent   recent.Store
}

// New constructs a Service over the given searcher and recent-search store.
func New(searcher musicapi.TrackSearcher, recentStore recent.Store) Service {
	return &service{searcher: searcher, recent: recentStore}
}

// ClampLimit maps a requested page size onto [1, MaxLimit]; zero or negative
// selects DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func (s *service) Search(ctx context.Context, owner, query string, limit int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	checked := validate.Query(query)
	if !checked.Valid {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return Result{}, app.Invalid(app.ErrInvalidQuery, checked.Error)
	}
	// Markup or punctuation alone passes the length check but leaves nothing
	// to search for.
	if strings.TrimSpace(checked.Cleaned) == "" {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return Result{}, app.Invalid(app.ErrInvalidQuery, validate.ReasonQueryTooShort)
	}

	tracks, err := s.searcher.SearchTracks(ctx, checked.Cleaned, ClampLimit(limit))
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return Result{}, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()

	if owner != "" {
		if _, err := s.recent.Add(ctx, owner, checked.Cleaned); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("record recent search")
		}
	}

	if tracks == nil {
		tracks = []musicapi.Track{}
	}
	return Result{Query: checked.Cleaned, Tracks: tracks}, nil
}

func (s *service) Recent(ctx context.Context, owner string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.recent.List(ctx, owner)
}

func (s *service) ClearRecent(ctx context.Context, owner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.recent.Clear(ctx, owner)
}
