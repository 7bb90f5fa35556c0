// Package apperrors holds the error taxonomy shared by services and HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrUnavailable      = errors.New("upstream unavailable")
	ErrNotFound         = errors.New("not found")
	ErrAmbiguousState   = errors.New("ambiguous state")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
)

// Validation wraps ErrValidation with a short, client-safe reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error onto the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		// ErrUnavailable, ErrAmbiguousState and anything unexpected.
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the stable text sent to clients for err.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "Bad Request: " + err.Error()
	case http.StatusMethodNotAllowed:
		return "Method Not Allowed"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusConflict:
		return "Conflict"
	default:
		return "Internal Server Error"
	}
}
