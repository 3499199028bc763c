// Package domainerr classifies domain failures so transport layers can map
// them without knowing every sentinel.
package domainerr

import "errors"

// Error kinds. Every domain sentinel unwraps to exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a domain error carrying a user-facing message and a kind.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Validation creates an error of kind ErrValidation
func Validation(msg string) *Error {
	return &Error{kind: ErrValidation, msg: msg}
}

// NotFound creates an error of kind ErrNotFound
func NotFound(msg string) *Error {
	return &Error{kind: ErrNotFound, msg: msg}
}

// Unauthorized creates an error of kind ErrUnauthorized
func Unauthorized(msg string) *Error {
	return &Error{kind: ErrUnauthorized, msg: msg}
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized reports whether err is an authentication failure
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
