package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPlan marks generator output that cannot be normalized.
	ErrMalformedPlan = errors.New("malformed plan")
	// ErrInvalidConstraints marks scheduling parameters that are missing, non-numeric or out of range.
	ErrInvalidConstraints = errors.New("invalid constraints")
)

// Error carries the failure kind together with the offending detail.
type Error struct {
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func malformed(format string, args ...any) error {
	return &Error{Kind: ErrMalformedPlan, Detail: fmt.Sprintf(format, args...)}
}

func invalidConstraints(format string, args ...any) error {
	return &Error{Kind: ErrInvalidConstraints, Detail: fmt.Sprintf(format, args...)}
}

var (
	errMissing    = errors.New("value is required")
	errNotNumeric = errors.New("value is not numeric")
	errNotWhole   = errors.New("value is not a whole number")
)
