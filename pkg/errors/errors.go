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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. NotFound deliberately covers
// "exists but forbidden for this caller" so existence never leaks.
var (
	ErrNotFound              = New("NOT_FOUND", http.StatusNotFound, "item not found or not accessible")
	ErrConflict              = New("CONFLICT", http.StatusConflict, "an item with this name already exists in the folder")
	ErrLockedItem            = New("LOCKED_ITEM", http.StatusConflict, "item is system locked")
	ErrFolderCycle           = New("FOLDER_CYCLE", http.StatusBadRequest, "cannot move a folder into itself or a descendant")
	ErrAlreadyTrashed        = New("ALREADY_TRASHED", http.StatusBadRequest, "item is already in trash")
	ErrNotTrashed            = New("NOT_TRASHED", http.StatusBadRequest, "item is not in trash")
	ErrInvalidTransition     = New("INVALID_STATE_TRANSITION", http.StatusConflict, "invalid signing state transition")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrForbidden             = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized          = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrPermissionUnavailable = New("PERMISSION_CHECK_UNAVAILABLE", http.StatusServiceUnavailable, "permission check unavailable")
	ErrAlreadyProvisioned    = New("ALREADY_PROVISIONED", http.StatusConflict, "repository folders already provisioned")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss             = New("CACHE_MISS", http.StatusNotFound, "cache miss")
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

// Is reports whether err carries the same code and status as target.
// Predefined errors are compared structurally so wrapped and cloned values
// still match.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code && e.Status == target.Status
}
