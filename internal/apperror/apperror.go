package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no matching active account or credential exists.
	// A malformed row (schema drift in the external database) is reported
	// the same way — defensively treated as "does not exist", never as a
	// crash.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the account database could not be opened
	// or a query could not execute. Kept distinct from ErrNotFound so
	// callers can tell "the user doesn't exist" apart from "the store is
	// unreachable" — even though authentication treats both as a refusal.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

type AppError struct {
	Err     error  // sentinel the error wraps
	Message string // human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, name string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, name),
	}
}

// StoreUnavailable wraps a driver error from the account database.
// The driver error stays in the chain for the host's logs; it is never
// surfaced to end users.
func StoreUnavailable(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err),
		Message: fmt.Sprintf("account store unavailable during %s", op),
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func ValidationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}
