package models

import (
	"errors"
)

var (
	ErrNoRecord   = errors.New("models: no matching record found")
	ErrValidation = errors.New("models: validation failed")
	ErrForbidden  = errors.New("models: admin role required")
	ErrNetwork    = errors.New("models: trade service unreachable")
	ErrMissingID  = errors.New("models: trade id is required")
	ErrInvalidID  = errors.New("models: trade id is not a valid path segment")
)

// ValidationError carries the message shown next to the form.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
