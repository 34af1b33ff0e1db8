package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a concurrent request already applied the same change.
	ErrConflict = errors.New("conflict")
)

// Link rejection and input validation codes
const (
	CodeInvalidLink     = "INVALID_LINK"
	CodeNotYetActive    = "NOT_YET_ACTIVE"
	CodeWindowExpired   = "WINDOW_EXPIRED"
	CodeExpired         = "EXPIRED"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeForbidden       = "FORBIDDEN"
	CodeDeviceMismatch  = "DEVICE_MISMATCH"
	CodeInvalidState    = "INVALID_STATE"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// ValidationError rejects a request before any state is touched. Boundary carries the
// window edge for time-based link rejections.
type ValidationError struct {
	Code     string
	Message  string
	Boundary *time.Time
}

func (e *ValidationError) Error() string {
	if e.Boundary != nil {
		return fmt.Sprintf("%s: %s (boundary %s)", e.Code, e.Message, e.Boundary.UTC().Format(time.RFC3339))
	}
	return e.Code + ": " + e.Message
}

func Validation(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func InvalidInput(format string, args ...any) *ValidationError {
	return &ValidationError{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError means the caller is known but may not act on the resource.
type AuthorizationError struct {
	Code    string
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Code + ": " + e.Message
}

func Forbidden(message string) *AuthorizationError {
	return &AuthorizationError{Code: CodeForbidden, Message: message}
}

// StateError reports an operation attempted from a status that does not allow it.
type StateError struct {
	Op     string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s session in status %q", e.Op, e.Status)
}

// Collaborator error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)

// CollaboratorError wraps a failure from an external dependency such as the LLM provider,
// the mail server or the resume extractor.
type CollaboratorError struct {
	Collaborator string
	Code         string
	Message      string
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Err != nil {
		return e.Collaborator + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Collaborator + " error: " + e.Message
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
