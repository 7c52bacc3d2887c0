package integrity

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable classification of a core error.
type Kind string

const (
	KindInvalidState    Kind = "invalid_state"
	KindConflict        Kind = "conflict"
	KindValidation      Kind = "validation"
	KindDeadlineExpired Kind = "deadline_expired"
)

// Error is a synchronous rejection of a single operation. It leaves prior
// state unchanged; the core never retries.
type Error struct {
	Kind    Kind
	Field   string // set for validation errors, names the offending field
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func DeadlineExpired(message string) *Error {
	return &Error{Kind: KindDeadlineExpired, Message: message}
}

// IsKind reports whether err is a core error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// StoreError wraps a persistence failure the core does not interpret.
// Callers must treat the operation as not applied.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStore wraps err as a StoreError unless it already is a core error.
func WrapStore(err error) error {
	if err == nil {
		return err
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Err: err}
}
