// Package validate normalizes and checks user input before it reaches the
// queue engine or storage. Validators never return errors: they return a
// Result whose Error field carries a user-displayable reason.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Reasons returned in Result.Error. Clients match on these strings.
const (
	ReasonNameTooShort  = "name too short"
	ReasonNameTooLong   = "name too long"
	ReasonNoGenres      = "no genres selected"
	ReasonTooManyGenres = "too many genres"
	ReasonQueryTooShort = "query too short"
	ReasonQueryTooLong  = "query too long"
	ReasonInvalidPhone  = "invalid phone number"
	ReasonInvalidCode   = "invalid code"
)

const (
	minPhoneDigits = 9
	maxPhoneDigits = 15

	minQueryLen = 2
	maxQueryLen = 100
)

var (
	otpPattern      = regexp.MustCompile(`^[0-9]{6}$`)
	queryDisallowed = regexp.MustCompile(`[^\w\sáéíóúñü]`)
)

// Result is the outcome of a validation.
type Result struct {
	Valid   bool   `json:"valid"`
	Cleaned string `json:"cleaned,omitempty"`
	Error   string `json:"error,omitempty"`
}

func invalid(reason string) Result {
	return Result{Valid: false, Error: reason}
}

// Phone strips every non-digit and accepts 9 to 15 digits, which admits
// international numbers with or without a country prefix. Cleaned holds the
// digits.
func Phone(raw string) Result {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	digits := b.String()
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return invalid(ReasonInvalidPhone)
	}
	return Result{Valid: true, Cleaned: digits}
}

// OTP accepts exactly six ASCII digits.
func OTP(code string) Result {
	if !otpPattern.MatchString(code) {
		return invalid(ReasonInvalidCode)
	}
	return Result{Valid: true, Cleaned: code}
}

// Query trims and lowercases a search string, checks its length and strips
// everything except word characters, whitespace and Spanish accented letters.
func Query(text string) Result {
	q := strings.ToLower(strings.TrimSpace(text))
	n := utf8.RuneCountInString(q)
	switch {
	case n < minQueryLen:
		return invalid(ReasonQueryTooShort)
	case n > maxQueryLen:
		return invalid(ReasonQueryTooLong)
	}
	return Result{Valid: true, Cleaned: queryDisallowed.ReplaceAllString(q, "")}
}
