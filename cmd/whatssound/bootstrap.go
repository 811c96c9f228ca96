package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"whatssound/internal/app"
	"whatssound/internal/app/requests"
	"whatssound/internal/app/sessions"
	"whatssound/internal/auth"
	"whatssound/internal/store"
	"whatssound/internal/validate"
)

const (
	demoDJ       = "demo-dj"
	demoJoinCode = "PARTY2"
)

// bootstrapDemoSession opens a sample session with a few requests so a fresh
// install has something to show. It does nothing if the demo session is
// already running.
func bootstrapDemoSession(ctx context.Context, dataStore *store.Store, queueSvc requests.Service, verifier *auth.TokenVerifier) error {
	sessionSvc := sessions.New(dataStore, func() (string, error) { return demoJoinCode, nil })

	if existing, err := sessionSvc.GetByCode(ctx, demoJoinCode); err == nil {
		log.Info().Str("session_id", existing.ID).Str("join_code", demoJoinCode).Msg("demo session already running")
		return nil
	} else if !errors.Is(err, store.ErrSessionNotFound) {
		return fmt.Errorf("lookup demo session: %w", err)
	}

	session, err := sessionSvc.Create(ctx, demoDJ, validate.SessionForm{
		Name:   "Demo Night",
		Genres: []string{"reggaeton", "pop", "house"},
	})
	if err != nil {
		return fmt.Errorf("create demo session: %w", err)
	}

	type seedRequest struct {
		Guest  string
		Song   requests.SongRequest
		Voters []string
	}

	seeds := []seedRequest{
		{
			Guest:  "demo-guest-1",
			Song:   requests.SongRequest{Title: "Despacito", Artist: "Luis Fonsi", Duration: 229},
			Voters: []string{"demo-guest-2", "demo-guest-3"},
		},
		{
			Guest:  "demo-guest-2",
			Song:   requests.SongRequest{Title: "Tití Me Preguntó", Artist: "Bad Bunny", Duration: 243},
			Voters: []string{"demo-guest-1", "demo-guest-3", "demo-guest-4"},
		},
		{
			Guest: "demo-guest-3",
			Song:  requests.SongRequest{Title: "One More Time", Artist: "Daft Punk", Duration: 320},
		},
	}

	for _, seed := range seeds {
		entry, err := queueSvc.Request(ctx, seed.Guest, session.ID, seed.Song)
		if err != nil {
			if errors.Is(err, app.ErrDuplicateRequest) {
				continue
			}
			return fmt.Errorf("request demo song %q: %w", seed.Song.Title, err)
		}
		for _, voter := range seed.Voters {
			if _, err := queueSvc.Vote(ctx, voter, entry.ID); err != nil && !errors.Is(err, store.ErrAlreadyVoted) {
				return fmt.Errorf("vote demo song %q: %w", seed.Song.Title, err)
			}
		}
	}

	token, err := verifier.Issue(demoDJ, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("issue demo token: %w", err)
	}

	log.Info().
		Str("session_id", session.ID).
		Str("join_code", session.JoinCode).
		Str("dj_token", token).
		Msg("demo session ready")
	return nil
}
