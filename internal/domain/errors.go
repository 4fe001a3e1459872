package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrInvariant  = errors.New("computation invariant violated")
)

// ValidationError reports malformed or missing input, caught before any
// forecast is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a reference to an id missing from the supplied
// collections.
type NotFoundError struct {
	Kind string // risk, control, client, bucket, scenario, forecast
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvariantError reports a forecast that does not reconcile. It signals a
// data or programmer error, not a user mistake.
type InvariantError struct {
	Week   int
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Week > 0 {
		return fmt.Sprintf("forecast week %d: %s", e.Week, e.Reason)
	}
	return "forecast: " + e.Reason
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// Invalid is shorthand for a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Missing is shorthand for a *NotFoundError.
func Missing(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
