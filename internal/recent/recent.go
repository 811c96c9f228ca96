// Package recent keeps each user's most recent search terms.
package recent

import (
	"context"
	"strings"
)

// MaxRecentSearches caps how many terms are remembered per owner.
const MaxRecentSearches = 10

// Store persists recent-search lists keyed by owner (a user id or a device
// id for anonymous clients). Lists are ordered most recent first.
type Store interface {
	List(ctx context.Context, owner string) ([]string, error)
	Add(ctx context.Context, owner, term string) ([]string, error)
	Clear(ctx context.Context, owner string) error
}

// Add returns a new list with term at the front. A term already present,
// compared case-insensitively, moves to the front instead of repeating, and
// the result never exceeds MaxRecentSearches. Blank terms leave the list
// unchanged. list is not modified.
func Add(list []string, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]string, len(list))
		copy(out, list)
		return out
	}

	out := make([]string, 0, MaxRecentSearches)
	out = append(out, term)
	for _, existing := range list {
		if len(out) == MaxRecentSearches {
			break
		}
		if strings.EqualFold(existing, term) {
			continue
		}
		out = append(out, existing)
	}
	return out
}
