// Package apperrors defines the error taxonomy shared by services and
// controllers, and maps errors onto HTTP status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidArgument marks bad caller input (self-like, empty ids).
	// Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks operations on records that do not exist.
	ErrNotFound = errors.New("not found")
)

// StoreError wraps a failure from the document store. Callers may retry the
// whole operation; the engine's write paths are idempotent.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a StoreError for the given operation.
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// InvalidArgument returns an ErrInvalidArgument with a caller-facing message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// IsStoreError reports whether err is (or wraps) a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// HTTPStatus converts service errors into HTTP status codes.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case IsStoreError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
