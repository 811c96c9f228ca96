// Package joincode generates the short codes guests type to join a session.
package joincode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet leaves out I, O, 0 and 1, which are easy to misread on a screen.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the number of characters in a join code.
const Length = 6

// Generate returns a random join code. Uniqueness among active sessions is
// enforced by the store, so callers retry on collision.
func Generate() (string, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i := range b {
		// len(Alphabet) is 32, so masking keeps the distribution uniform.
		b[i] = Alphabet[b[i]&31]
	}
	return string(b), nil
}

// Normalize uppercases and trims user input and reports whether the result
// is a well-formed code.
func Normalize(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != Length {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return "", false
		}
	}
	return code, true
}
