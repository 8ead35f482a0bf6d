package utils

import (
	"errors"
	"net/http"
)

// Error kinds returned by the ordering core. Compare with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTableMismatch     = errors.New("token does not match table number")
	ErrSessionInvalid    = errors.New("session expired or invalid")
	ErrTableOccupied     = errors.New("table is already occupied")
	ErrInvalidState      = errors.New("invalid order state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// AppError carries an error kind plus a caller-facing message and an optional cause.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *AppError) Is(target error) bool {
	return e.Kind == target
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError builds an AppError of the given kind.
func NewError(kind error, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WrapError builds an AppError of the given kind around a cause.
func WrapError(kind error, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// StatusCode maps an error to the HTTP status the API answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrTableOccupied),
		errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTableMismatch),
		errors.Is(err, ErrSessionInvalid),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
