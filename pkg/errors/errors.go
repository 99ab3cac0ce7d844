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

// Is matches errors sharing the same code, so clones and wraps of a
// predefined error still satisfy errors.Is against it.
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
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Calendar view errors. The first four are fatal to a request; the adapter
// errors only reach the log and the per-calendar error list.
var (
	ErrMissingSessionState = New("MISSING_SESSION_STATE", http.StatusConflict, "calendar session is not initialized")
	ErrBadIntervalFormat   = New("BAD_INTERVAL_FORMAT", http.StatusBadRequest, "malformed interval")
	ErrInvalidCalendarID   = New("INVALID_CALENDAR_ID", http.StatusBadRequest, "invalid calendar id")
	ErrBadTimezone         = New("BAD_TIMEZONE", http.StatusBadRequest, "unknown timezone")
	ErrAdapterNotFound     = New("ADAPTER_NOT_FOUND", http.StatusNotFound, "calendar adapter not registered")
	ErrAdapterTimeout      = New("ADAPTER_TIMEOUT", http.StatusGatewayTimeout, "calendar adapter timed out")
	ErrAdapterFailure      = New("ADAPTER_FAILURE", http.StatusBadGateway, "calendar adapter failed")
	ErrInvalidFeedToken    = New("INVALID_FEED_TOKEN", http.StatusNotFound, "feed link is invalid or expired")
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

// CloneWrap is Clone that also records the underlying cause.
func CloneWrap(err *Error, cause error, message string) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Err = cause
	}
	return clone
}
