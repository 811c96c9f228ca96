package queue

import (
	"reflect"
	"testing"
)

func votesOf(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Votes
	}
	return out
}

func idsOf(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantIDs []string
	}{
		{
			name: "orders by votes descending",
			entries: []Entry{
				{ID: "a", Status: StatusPending, Votes: 5},
				{ID: "b", Status: StatusPending, Votes: 10},
				{ID: "c", Status: StatusPending, Votes: 3},
			},
			wantIDs: []string{"b", "a", "c"},
		},
		{
			name: "approved beats votes",
			entries: []Entry{
				{ID: "crowd", Status: StatusPending, Votes: 100},
				{ID: "dj", Status: StatusApproved, Votes: 1},
			},
			wantIDs: []string{"dj", "crowd"},
		},
		{
			name: "drops rejected and played",
			entries: []Entry{
				{ID: "a", Status: StatusRejected, Votes: 50},
				{ID: "b", Status: StatusPending, Votes: 1},
				{ID: "c", Status: StatusPlayed, Votes: 40},
				{ID: "d", Status: StatusApproved, Votes: 0},
			},
			wantIDs: []string{"d", "b"},
		},
		{
			name: "ties keep input order",
			entries: []Entry{
				{ID: "first", Status: StatusPending, Votes: 2},
				{ID: "second", Status: StatusPending, Votes: 2},
				{ID: "third", Status: StatusApproved, Votes: 0},
				{ID: "fourth", Status: StatusApproved, Votes: 0},
			},
			wantIDs: []string{"third", "fourth", "first", "second"},
		},
		{
			name:    "empty input",
			entries: nil,
			wantIDs: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Rank(tc.entries)
			if !reflect.DeepEqual(idsOf(got), tc.wantIDs) {
				t.Fatalf("expected order %v, got %v", tc.wantIDs, idsOf(got))
			}
		})
	}
}

func TestRankVoteCounts(t *testing.T) {
	got := Rank([]Entry{
		{Status: StatusPending, Votes: 5},
		{Status: StatusPending, Votes: 10},
		{Status: StatusPending, Votes: 3},
	})
	if want := []int{10, 5, 3}; !reflect.DeepEqual(votesOf(got), want) {
		t.Fatalf("expected votes %v, got %v", want, votesOf(got))
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []Entry{
		{ID: "a", Status: StatusPending, Votes: 1},
		{ID: "b", Status: StatusPending, Votes: 9},
	}
	_ = Rank(input)
	if input[0].ID != "a" || input[1].ID != "b" {
		t.Fatalf("input reordered: %v", idsOf(input))
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []Entry{
		{Title: "Despacito", Artist: "Luis Fonsi"},
		{Title: "Don't Stop Me Now", Artist: "Queen"},
	}

	tests := []struct {
		name      string
		candidate Song
		want      bool
	}{
		{"exact match", Song{Title: "Despacito", Artist: "Luis Fonsi"}, true},
		{"case change", Song{Title: "DESPACITO", Artist: "luis fonsi"}, true},
		{"surrounding whitespace", Song{Title: "  Despacito ", Artist: " Luis Fonsi  "}, true},
		{"punctuation ignored", Song{Title: "Dont Stop Me Now!", Artist: "Queen."}, true},
		{"same title different artist", Song{Title: "Despacito", Artist: "Justin Bieber"}, false},
		{"same artist different title", Song{Title: "Bohemian Rhapsody", Artist: "Queen"}, false},
		{"alternate title not caught", Song{Title: "Despacito (Remix)", Artist: "Luis Fonsi"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicate(tc.candidate, existing); got != tc.want {
				t.Fatalf("IsDuplicate(%+v) = %v, want %v", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestIsDuplicateEmptyQueue(t *testing.T) {
	if IsDuplicate(Song{Title: "Anything", Artist: "Anyone"}, nil) {
		t.Fatal("expected no duplicate in empty queue")
	}
}

func TestCanVote(t *testing.T) {
	votes := []Vote{
		{UserID: "user-1", SongID: "song-1"},
		{UserID: "user-2", SongID: "song-2"},
	}

	tests := []struct {
		name   string
		userID string
		songID string
		want   bool
	}{
		{"repeat vote rejected", "user-1", "song-1", false},
		{"same user different song", "user-1", "song-2", true},
		{"different user same song", "user-3", "song-1", true},
		{"new user new song", "user-3", "song-3", true},
		// An earlier version compared each vote's user to itself, which made
		// every pair look already voted; this case guards the comparison
		// against the caller's user id.
		{"compares candidate user against vote owner", "user-2", "song-1", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanVote(tc.userID, tc.songID, votes); got != tc.want {
				t.Fatalf("CanVote(%q, %q) = %v, want %v", tc.userID, tc.songID, got, tc.want)
			}
		})
	}
}

func TestTally(t *testing.T) {
	got := Tally([]Vote{
		{UserID: "u1", SongID: "a"},
		{UserID: "u2", SongID: "a"},
		{UserID: "u1", SongID: "b"},
	})
	want := map[string]int{"a": 2, "b": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPlayed, true},
		{StatusApproved, StatusPlayed, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusPlayed, StatusApproved, false},
		{StatusPlayed, StatusRejected, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Fatalf("CanTransition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("approved"); !ok || s != StatusApproved {
		t.Fatalf("expected approved, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("skipped"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
