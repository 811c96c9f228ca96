package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrSessionNotFound indicates no session matches the id or join code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded indicates the session no longer accepts changes.
	ErrSessionEnded = errors.New("session has ended")
	// ErrJoinCodeTaken signals another active session holds the join code.
	ErrJoinCodeTaken = errors.New("join code already in use")
	// ErrEntryNotFound indicates no queue entry matches the id.
	ErrEntryNotFound = errors.New("queue entry not found")
	// ErrEntryClosed indicates the entry was rejected or played and takes no votes.
	ErrEntryClosed = errors.New("queue entry no longer accepts votes")
	// ErrAlreadyVoted signals the user already voted for the entry.
	ErrAlreadyVoted = errors.New("already voted for this song")
	// ErrInvalidTransition rejects a status change the queue does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProfileNotFound indicates the user has not saved a profile yet.
	ErrProfileNotFound = errors.New("profile not found")
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	raw, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("encode genres: %w", err)
	}
	return string(raw), nil
}

func decodeGenres(raw []byte) ([]string, error) {
	genres := []string{}
	if len(raw) == 0 {
		return genres, nil
	}
	if err := json.Unmarshal(raw, &genres); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}
	return genres, nil
}
