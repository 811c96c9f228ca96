package queue

import "time"

// Status is the moderation state of a queue entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPlayed   Status = "played"
)

// ParseStatus converts a raw status string, reporting whether it is known.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusApproved, StatusRejected, StatusPlayed:
		return s, true
	default:
		return "", false
	}
}

// Active reports whether entries in this status are shown in the next-up list
// and can still receive votes.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPlayed
}

// CanTransition reports whether an entry may move from s to next.
// Transitions only move toward a terminal state: nothing re-enters pending,
// and rejected or played entries are frozen.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() || s == next {
		return false
	}
	switch next {
	case StatusApproved:
		return s == StatusPending
	case StatusRejected, StatusPlayed:
		return true
	default:
		return false
	}
}

// Entry is a single song request in a session's queue.
type Entry struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album,omitempty"`
	Duration    int       `json:"duration_seconds,omitempty"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	RequestedBy string    `json:"requested_by"`
	Votes       int       `json:"votes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Song is the identifying part of a request candidate.
type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Vote records that a user voted for a queue entry.
type Vote struct {
	UserID string `json:"user_id"`
	SongID string `json:"song_id"`
}
