package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a live DJ broadcast with its own queue and join code.
type Session struct {
	ID        string     `json:"id"`
	DJID      string     `json:"dj_id"`
	Name      string     `json:"name"`
	Genres    []string   `json:"genres"`
	JoinCode  string     `json:"join_code"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

const sessionColumns = `id, dj_id, name, genres, join_code, active, created_at, ended_at`

// CreateSession inserts an active session. A join code held by another
// active session yields ErrJoinCodeTaken so the caller can mint a new one.
func (s *Store) CreateSession(ctx context.Context, session Session) (Session, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	genres, err := encodeGenres(session.Genres)
	if err != nil {
		return Session{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, dj_id, name, genres, join_code)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		RETURNING created_at
	`, session.ID, session.DJID, session.Name, genres, session.JoinCode).Scan(&session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Session{}, ErrJoinCodeTaken
		}
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	session.Active = true
	if session.Genres == nil {
		session.Genres = []string{}
	}
	return session, nil
}

// SessionByID returns the session, active or ended.
func (s *Store) SessionByID(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return session, nil
}

// SessionByCode returns the active session holding code.
func (s *Store) SessionByCode(ctx context.Context, code string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE join_code = $1 AND active
	`, code)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return session, nil
}

// EndSession marks the session inactive and purges its votes. Entry vote
// counts are kept for the history view.
func (s *Store) EndSession(ctx context.Context, id string) (Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	session, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	if !session.Active {
		return Session{}, ErrSessionEnded
	}

	var endedAt time.Time
	if err := tx.QueryRowContext(ctx, `
		UPDATE sessions
		SET active = FALSE, ended_at = NOW()
		WHERE id = $1
		RETURNING ended_at
	`, id).Scan(&endedAt); err != nil {
		return Session{}, fmt.Errorf("end session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM votes
		WHERE song_id IN (SELECT id FROM queue_entries WHERE session_id = $1)
	`, id); err != nil {
		return Session{}, fmt.Errorf("purge votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	session.Active = false
	session.EndedAt = &endedAt
	return session, nil
}

func scanSession(scanner rowScanner) (Session, error) {
	var (
		session    Session
		genresJSON []byte
		endedAt    sql.NullTime
	)

	if err := scanner.Scan(
		&session.ID,
		&session.DJID,
		&session.Name,
		&genresJSON,
		&session.JoinCode,
		&session.Active,
		&session.CreatedAt,
		&endedAt,
	); err != nil {
		return Session{}, fmt.Errorf("scan session: %w", err)
	}

	genres, err := decodeGenres(genresJSON)
	if err != nil {
		return Session{}, err
	}
	session.Genres = genres

	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}
	return session, nil
}
