package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"whatssound/internal/queue"
)

// ListVotes returns the votes cast for a queue entry, oldest first.
func (s *Store) ListVotes(ctx context.Context, songID string) ([]queue.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT user_id, song_id
		FROM votes
		WHERE song_id = $1
		ORDER BY created_at ASC
	`, songID)
}

// ListSessionVotes returns every vote cast in a session, oldest first. Ended
// sessions have none since ending purges them.
func (s *Store) ListSessionVotes(ctx context.Context, sessionID string) ([]queue.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT v.user_id, v.song_id
		FROM votes v
		JOIN queue_entries q ON q.id = v.song_id
		WHERE q.session_id = $1
		ORDER BY v.created_at ASC
	`, sessionID)
}

func (s *Store) queryVotes(ctx context.Context, query string, arg string) ([]queue.Vote, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select votes: %w", err)
	}
	defer rows.Close()

	votes := []queue.Vote{}
	for rows.Next() {
		var v queue.Vote
		if err := rows.Scan(&v.UserID, &v.SongID); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}

	return votes, nil
}

// RecordVote inserts the vote and bumps the entry's counter in one
// transaction and returns the new count. The primary key on
// (user_id, song_id) turns a concurrent repeat into ErrAlreadyVoted. The
// session row is share-locked so a vote cannot land after EndSession has
// purged the ledger.
func (s *Store) RecordVote(ctx context.Context, userID, songID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var active bool
	err = tx.QueryRowContext(ctx, `
		SELECT s.active
		FROM queue_entries q
		JOIN sessions s ON s.id = q.session_id
		WHERE q.id = $1
		FOR SHARE OF s
	`, songID).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrEntryNotFound
		}
		return 0, fmt.Errorf("lock session: %w", err)
	}
	if !active {
		return 0, ErrSessionEnded
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO votes (user_id, song_id)
		VALUES ($1, $2)
	`, userID, songID); err != nil {
		switch {
		case isUniqueViolation(err):
			return 0, ErrAlreadyVoted
		case isForeignKeyViolation(err):
			return 0, ErrEntryNotFound
		}
		return 0, fmt.Errorf("insert vote: %w", err)
	}

	var votes int
	err = tx.QueryRowContext(ctx, `
		UPDATE queue_entries
		SET votes = votes + 1, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')
		RETURNING votes
	`, songID).Scan(&votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrEntryClosed
		}
		return 0, fmt.Errorf("increment votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return votes, nil
}
