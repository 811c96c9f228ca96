// Package app holds the errors shared by the application services under it.
package app

import "errors"

var (
	// ErrInvalidInput marks a request rejected by validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidQuery marks a search query rejected by validation.
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrForbidden signals the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicateRequest signals the song is already waiting in the queue.
	ErrDuplicateRequest = errors.New("song already requested")
	// ErrUnavailable signals an optional integration is not configured.
	ErrUnavailable = errors.New("feature not configured")
)

// ValidationError carries the user-facing reason for a rejected input.
type ValidationError struct {
	Kind   error
	Reason string
}

// Invalid wraps reason so callers can match kind with errors.Is.
func Invalid(kind error, reason string) error {
	return &ValidationError{Kind: kind, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}
