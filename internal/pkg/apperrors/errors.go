// Package apperrors holds the error taxonomy shared by the engine and its surfaces.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad caller input; never retried automatically.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateRequest marks a second active connection request for a pair.
	ErrDuplicateRequest = errors.New("duplicate connection request")
	// ErrNotAuthorized marks an action attempted by someone other than the allowed party.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStaleState marks a lost compare-and-set; the record was already handled.
	ErrStaleState = errors.New("stale state")
	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a unique constraint violation at the store.
	ErrDuplicate = errors.New("duplicate record")
)

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the kind and id of the missing record.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// NotAuthorized wraps ErrNotAuthorized with a formatted reason.
func NotAuthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotAuthorized, fmt.Sprintf(format, args...))
}

// Stale wraps ErrStaleState with a formatted reason.
func Stale(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStaleState, fmt.Sprintf(format, args...))
}

// IsClientError reports whether err is caused by the caller rather than the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrStaleState) ||
		errors.Is(err, ErrNotFound)
}
