package pantry

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a row is missing, soft-deleted, or owned by
// someone else. Callers cannot tell the three apart.
var ErrNotFound = errors.New("not found")

// ValidationError reports caller-supplied input that was rejected before any
// write happened.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
