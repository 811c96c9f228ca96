package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile is the public face of a user inside sessions.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Genres      []string  `json:"genres"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertProfile creates or replaces the user's profile.
func (s *Store) UpsertProfile(ctx context.Context, profile Profile) (Profile, error) {
	genres, err := encodeGenres(profile.Genres)
	if err != nil {
		return Profile{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, display_name, genres)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			genres = EXCLUDED.genres,
			updated_at = NOW()
		RETURNING updated_at
	`, profile.UserID, profile.DisplayName, genres).Scan(&profile.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("upsert profile: %w", err)
	}

	if profile.Genres == nil {
		profile.Genres = []string{}
	}
	return profile, nil
}

// ProfileByUserID returns the stored profile.
func (s *Store) ProfileByUserID(ctx context.Context, userID string) (Profile, error) {
	var (
		profile    Profile
		genresJSON []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, genres, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&profile.UserID, &profile.DisplayName, &genresJSON, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("select profile: %w", err)
	}

	genres, err := decodeGenres(genresJSON)
	if err != nil {
		return Profile{}, err
	}
	profile.Genres = genres
	return profile, nil
}
