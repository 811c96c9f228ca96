package queue

import "sort"

// Rank returns the next-up order for a session's queue.
//
// Only pending and approved entries are kept. Approved entries come before
// everything else regardless of votes; within the same tier entries are
// ordered by votes, highest first. Ties keep their input order. The input
// slice is not modified.
func Rank(entries []Entry) []Entry {
	ranked := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Status.Active() {
			ranked = append(ranked, e)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ai := ranked[i].Status == StatusApproved
		aj := ranked[j].Status == StatusApproved
		if ai != aj {
			return ai
		}
		return ranked[i].Votes > ranked[j].Votes
	})

	return ranked
}
