// Package apperr defines the error taxonomy surfaced to callers of the
// lifecycle engine. Every failure mode a client can recover from maps to
// exactly one of these sentinels; storage and connectivity failures are
// wrapped separately and treated as transient by the caller.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no credential was supplied or the
	// supplied credential could not be verified.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPermissionDenied is returned when the caller's role is not in the
	// allowed set for the attempted operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a request, notification or user id does
	// not resolve.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned on malformed input: empty items, non-positive
	// amounts, missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStateTransition is returned when the attempted transition is
	// not defined from the request's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrAlreadyProcessed is returned to the loser of a decision race: the
	// request left PENDING between the caller's read and write.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrConflict is returned on a duplicate payment attempt.
	ErrConflict = errors.New("conflicting operation")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// PermissionDeniedf wraps ErrPermissionDenied with a formatted detail message.
func PermissionDeniedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPermissionDenied}, args...)...)
}
