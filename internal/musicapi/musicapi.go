package musicapi

import (
	"context"
	"errors"
)

// MusicProvider names the catalogue a track came from.
type MusicProvider string

const (
	ProviderDeezer MusicProvider = "deezer"
)

// ErrProviderUnavailable is returned while the provider's circuit is open.
var ErrProviderUnavailable = errors.New("music provider unavailable")

// Track is a search hit that a user can turn into a song request.
type Track struct {
	ExternalID string        `json:"external_id"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Album      string        `json:"album,omitempty"`
	Provider   MusicProvider `json:"provider"`
	Duration   int           `json:"duration"` // in seconds
	PreviewURL string        `json:"preview_url,omitempty"`
	CoverURL   string        `json:"cover_url,omitempty"`
}

// TrackSearcher finds tracks in an external catalogue.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
}
