package requests

import (
	"context"
	"errors"
	"strings"

	"whatssound/internal/app"
	"whatssound/internal/logging"
	"whatssound/internal/metrics"
	"whatssound/internal/queue"
	"whatssound/internal/store"
)

// Store captures the persistence needs for queue workflows.
type Store interface {
	SessionByID(ctx context.Context, id string) (store.Session, error)
	CreateQueueEntry(ctx context.Context, entry queue.Entry) (queue.Entry, error)
	ListQueueEntries(ctx context.Context, sessionID string) ([]queue.Entry, error)
	QueueEntryByID(ctx context.Context, id string) (queue.Entry, error)
	UpdateQueueEntryStatus(ctx context.Context, id string, next queue.Status) (queue.Entry, error)
	ListVotes(ctx context.Context, songID string) ([]queue.Vote, error)
	ListSessionVotes(ctx context.Context, sessionID string) ([]queue.Vote, error)
	RecordVote(ctx context.Context, userID, songID string) (int, error)
}

// SongRequest is what a guest submits, usually copied from a search hit.
type SongRequest struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Duration   int    `json:"duration"`
	PreviewURL string `json:"preview_url"`
	ExternalID string `json:"external_id"`
}

// Service coordinates song requests, voting and moderation.
type Service interface {
	Request(ctx context.Context, userID, sessionID string, req SongRequest) (queue.Entry, error)
	NextUp(ctx context.Context, sessionID string) ([]queue.Entry, error)
	History(ctx context.Context, sessionID string) ([]queue.Entry, error)
	Vote(ctx context.Context, userID, entryID string) (int, error)
	VoteCount(ctx context.Context, entryID string) (int, error)
	SetStatus(ctx context.Context, djID, entryID string, status queue.Status) (queue.Entry, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Request(ctx context.Context, userID, sessionID string, req SongRequest) (queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return queue.Entry{}, err
	}

	title := strings.TrimSpace(req.Title)
	artist := strings.TrimSpace(req.Artist)
	if title == "" || artist == "" {
		metrics.SongRequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return queue.Entry{}, app.Invalid(app.ErrInvalidInput, "title and artist are required")
	}

	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return queue.Entry{}, err
	}
	if !session.Active {
		metrics.SongRequestsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return queue.Entry{}, store.ErrSessionEnded
	}

	entries, err := s.store.ListQueueEntries(ctx, sessionID)
	if err != nil {
		return queue.Entry{}, err
	}

	// Played and rejected songs may be asked for again.
	waiting := make([]queue.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status.Active() {
			waiting = append(waiting, e)
		}
	}
	if queue.IsDuplicate(queue.Song{Title: title, Artist: artist}, waiting) {
		metrics.SongRequestsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return queue.Entry{}, app.ErrDuplicateRequest
	}

	entry, err := s.store.CreateQueueEntry(ctx, queue.Entry{
		SessionID:   sessionID,
		Title:       title,
		Artist:      artist,
		Album:       strings.TrimSpace(req.Album),
		Duration:    req.Duration,
		PreviewURL:  req.PreviewURL,
		ExternalID:  req.ExternalID,
		RequestedBy: userID,
	})
	if err != nil {
		metrics.SongRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return queue.Entry{}, err
	}

	metrics.SongRequestsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	return entry, nil
}

func (s *service) NextUp(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListQueueEntries(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Active {
		votes, err := s.store.ListSessionVotes(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		reconcileVotes(ctx, entries, queue.Tally(votes))
	}
	return queue.Rank(entries), nil
}

// reconcileVotes replaces the cached per-entry counters with the tally of
// recorded votes for every entry still waiting to be played.
func reconcileVotes(ctx context.Context, entries []queue.Entry, tally map[string]int) {
	for i := range entries {
		if !entries[i].Status.Active() {
			continue
		}
		if n := tally[entries[i].ID]; n != entries[i].Votes {
			logging.FromContext(ctx).Warn().
				Str("entry_id", entries[i].ID).
				Int("cached", entries[i].Votes).
				Int("recorded", n).
				Msg("vote counter out of step with recorded votes")
			entries[i].Votes = n
		}
	}
}

func (s *service) History(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.store.SessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListQueueEntries(ctx, sessionID)
}

func (s *service) Vote(ctx context.Context, userID, entryID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entry, err := s.store.QueueEntryByID(ctx, entryID)
	if err != nil {
		return 0, err
	}

	session, err := s.store.SessionByID(ctx, entry.SessionID)
	if err != nil {
		return 0, err
	}
	if !session.Active {
		metrics.VotesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return 0, store.ErrSessionEnded
	}
	if !entry.Status.Active() {
		metrics.VotesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return 0, store.ErrEntryClosed
	}

	votes, err := s.store.ListVotes(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if !queue.CanVote(userID, entryID, votes) {
		metrics.VotesTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return 0, store.ErrAlreadyVoted
	}

	// The store re-checks under its unique key, which settles two
	// concurrent first votes from the same user.
	count, err := s.store.RecordVote(ctx, userID, entryID)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyVoted) {
			metrics.VotesTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		} else {
			metrics.VotesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return 0, err
	}

	metrics.VotesTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	return count, nil
}

func (s *service) VoteCount(ctx context.Context, entryID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	entry, err := s.store.QueueEntryByID(ctx, entryID)
	if err != nil {
		return 0, err
	}
	session, err := s.store.SessionByID(ctx, entry.SessionID)
	if err != nil {
		return 0, err
	}
	// Ending a session purges its votes, leaving the counter as the record.
	if !session.Active {
		return entry.Votes, nil
	}

	votes, err := s.store.ListVotes(ctx, entryID)
	if err != nil {
		return 0, err
	}
	return queue.Tally(votes)[entryID], nil
}

func (s *service) SetStatus(ctx context.Context, djID, entryID string, status queue.Status) (queue.Entry, error) {
	if err := ctx.Err(); err != nil {
		return queue.Entry{}, err
	}

	entry, err := s.store.QueueEntryByID(ctx, entryID)
	if err != nil {
		return queue.Entry{}, err
	}

	session, err := s.store.SessionByID(ctx, entry.SessionID)
	if err != nil {
		return queue.Entry{}, err
	}
	if session.DJID != djID {
		return queue.Entry{}, app.ErrForbidden
	}
	if !session.Active {
		return queue.Entry{}, store.ErrSessionEnded
	}

	updated, err := s.store.UpdateQueueEntryStatus(ctx, entryID, status)
	if err != nil {
		return queue.Entry{}, err
	}

	metrics.StatusChangesTotal.WithLabelValues(string(status)).Inc()
	return updated, nil
}
