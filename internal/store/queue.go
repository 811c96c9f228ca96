package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"whatssound/internal/queue"
)

const entryColumns = `id, session_id, title, artist, album, duration_seconds, preview_url,
	external_id, requested_by, votes, status, created_at, updated_at`

// CreateQueueEntry stores a new pending request with zero votes.
func (s *Store) CreateQueueEntry(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = queue.StatusPending
	entry.Votes = 0

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO queue_entries (id, session_id, title, artist, album, duration_seconds,
			preview_url, external_id, requested_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		entry.ID,
		entry.SessionID,
		entry.Title,
		entry.Artist,
		entry.Album,
		entry.Duration,
		entry.PreviewURL,
		entry.ExternalID,
		entry.RequestedBy,
		string(entry.Status),
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return queue.Entry{}, ErrSessionNotFound
		}
		return queue.Entry{}, fmt.Errorf("insert queue entry: %w", err)
	}

	return entry, nil
}

// ListQueueEntries returns every entry of the session in submission order.
func (s *Store) ListQueueEntries(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select queue entries: %w", err)
	}
	defer rows.Close()

	entries := []queue.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue entries: %w", err)
	}

	return entries, nil
}

// QueueEntryByID returns a single entry.
func (s *Store) QueueEntryByID(ctx context.Context, id string) (queue.Entry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.Entry{}, ErrEntryNotFound
		}
		return queue.Entry{}, err
	}
	return entry, nil
}

// UpdateQueueEntryStatus moves an entry to next. The row is locked while the
// transition is checked, so concurrent moderators cannot both succeed with
// conflicting moves.
func (s *Store) UpdateQueueEntryStatus(ctx context.Context, id string, next queue.Status) (queue.Entry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queue.Entry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	entry, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return queue.Entry{}, ErrEntryNotFound
		}
		return queue.Entry{}, err
	}

	if !entry.Status.CanTransition(next) {
		return queue.Entry{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, entry.Status, next)
	}

	if err := tx.QueryRowContext(ctx, `
		UPDATE queue_entries
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id, string(next)).Scan(&entry.UpdatedAt); err != nil {
		return queue.Entry{}, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return queue.Entry{}, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	entry.Status = next
	return entry, nil
}

func scanEntry(scanner rowScanner) (queue.Entry, error) {
	var (
		entry  queue.Entry
		status string
	)

	if err := scanner.Scan(
		&entry.ID,
		&entry.SessionID,
		&entry.Title,
		&entry.Artist,
		&entry.Album,
		&entry.Duration,
		&entry.PreviewURL,
		&entry.ExternalID,
		&entry.RequestedBy,
		&entry.Votes,
		&status,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return queue.Entry{}, fmt.Errorf("scan queue entry: %w", err)
	}

	parsed, ok := queue.ParseStatus(status)
	if !ok {
		return queue.Entry{}, fmt.Errorf("scan queue entry: unknown status %q", status)
	}
	entry.Status = parsed
	return entry, nil
}
