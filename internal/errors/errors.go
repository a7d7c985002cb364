// Package errors defines the error kinds shared by the billing core, the
// persistence layer and the HTTP layer.
package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error kinds. Concrete errors are marked with one of these and matched
// with Is; the message of the concrete error is what callers display.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrComputation  = errors.New("computation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDatabase     = errors.New("database error")

	statusCodes = []struct {
		kind   error
		status int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrComputation, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrDatabase, http.StatusInternalServerError},
	}
)

// InvalidInput returns an error marked ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}

// Computation returns an error marked ErrComputation.
func Computation(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrComputation)
}

// NotFound returns an error marked ErrNotFound.
func NotFound(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// Unauthorized returns an error marked ErrUnauthorized.
func Unauthorized(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrUnauthorized)
}

// Conflict wraps err and marks it ErrConflict. The hint is what the
// client sees; the wrapped cause stays in the logs.
func Conflict(err error, hint string) error {
	return errors.Mark(errors.WithHint(err, hint), ErrConflict)
}

// Database wraps a storage failure with the operation name.
func Database(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrDatabase)
}

// Is reports whether err matches target anywhere in its chain.
func Is(err, target error) bool { return errors.Is(err, target) }

func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
func IsComputation(err error) bool  { return errors.Is(err, ErrComputation) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }

// HTTPStatus maps an error kind to a status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.kind) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text safe to show to a client: the hint when one was
// attached, the message for client errors, a generic text for the rest.
func PublicMessage(err error) string {
	if hints := errors.FlattenHints(err); hints != "" {
		return hints
	}
	if HTTPStatus(err) < http.StatusInternalServerError {
		return err.Error()
	}
	return "internal error"
}
