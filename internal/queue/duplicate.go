package queue

import "strings"

// IsDuplicate reports whether candidate matches an existing entry on both
// normalized title and normalized artist.
func IsDuplicate(candidate Song, existing []Entry) bool {
	title := normalize(candidate.Title)
	artist := normalize(candidate.Artist)

	for _, e := range existing {
		if normalize(e.Title) == title && normalize(e.Artist) == artist {
			return true
		}
	}
	return false
}

// normalize lowercases s and drops everything outside [a-z0-9].
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
