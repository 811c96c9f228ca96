package queue

// CanVote reports whether userID may vote for songID given the votes already
// cast. A user gets one vote per song.
func CanVote(userID, songID string, votes []Vote) bool {
	for _, v := range votes {
		if v.UserID == userID && v.SongID == songID {
			return false
		}
	}
	return true
}

// Tally recomputes vote counts per song.
func Tally(votes []Vote) map[string]int {
	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.SongID]++
	}
	return counts
}
