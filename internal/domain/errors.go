package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a malformed query, field vector, or spectrum.
	// It is detected before any computation runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable marks a failure of the field provider or the
	// activity index source. The domain never retries.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNumericDegenerate marks a NaN or infinity produced by a computation
	// stage from otherwise valid inputs.
	ErrNumericDegenerate = errors.New("numeric degenerate")
)

// InputError names the offending field of an invalid input.
type InputError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers match any InputError with errors.Is(err, ErrInvalidInput).
func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field string, value any, reason string) error {
	return &InputError{Field: field, Value: value, Reason: reason}
}

func degenerate(stage string, value float64) error {
	return fmt.Errorf("%s produced %v: %w", stage, value, ErrNumericDegenerate)
}
