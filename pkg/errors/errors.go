package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned sentinels still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Local validation, never reaches the club API.
	ErrPasswordMismatch    = New("PASSWORD_MISMATCH", http.StatusBadRequest, "Las contraseñas no coinciden")
	ErrPasswordTooShort    = New("PASSWORD_TOO_SHORT", http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
	ErrSelectionIncomplete = New("SELECTION_INCOMPLETE", http.StatusBadRequest, "Completa todos los campos")
	ErrGroupFull           = New("GROUP_FULL", http.StatusConflict, "El horario no tiene cupos disponibles")
	ErrInvalidStep         = New("INVALID_STEP", http.StatusConflict, "action not available in the current step")
	ErrRequestInFlight     = New("REQUEST_IN_FLIGHT", http.StatusConflict, "a request for this action is already in progress")

	// Club API failures.
	ErrUpstream           = New("UPSTREAM_ERROR", http.StatusBadGateway, "club service unavailable")
	ErrUpstreamValidation = New("UPSTREAM_VALIDATION", http.StatusUnprocessableEntity, "club service rejected the request")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// MessageOr returns the message carried by a typed error, or fallback when the
// error is untyped or carries no message of its own.
func MessageOr(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" && e.Code != ErrInternal.Code {
		return e.Message
	}
	return fallback
}
