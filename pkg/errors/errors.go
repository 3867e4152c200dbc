package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies a failure for status mapping and logging.
type ErrorType string

// CodeConflict marks a BadRequest caused by a conditional write losing to
// the stored state, such as a duplicate key or an outbid auction.
const CodeConflict = "CONFLICT"

const (
	ErrorTypeBadRequest         ErrorType = "BAD_REQUEST"
	ErrorTypeUnauthorized       ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden          ErrorType = "FORBIDDEN"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeEncryptionFailed   ErrorType = "ENCRYPTION_FAILED"
	ErrorTypeDecryptionFailed   ErrorType = "DECRYPTION_FAILED"
	ErrorTypeStorageFailed      ErrorType = "STORAGE_FAILED"
	ErrorTypeNotificationFailed ErrorType = "NOTIFICATION_FAILED"
	ErrorTypeUnexpected         ErrorType = "UNEXPECTED"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&stack, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack.String()
}

// newAppError records a stack trace for server-side failures only.
func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	err := &AppError{
		Type:       t,
		Message:    message,
		Cause:      cause,
		HTTPStatus: status,
	}
	if status >= http.StatusInternalServerError {
		err.StackTrace = captureStackTrace()
	}
	return err
}

// NewBadRequest is returned for malformed input, failed validation and
// rejected state transitions.
func NewBadRequest(message string) *AppError {
	return newAppError(ErrorTypeBadRequest, http.StatusBadRequest, message, nil)
}

// NewUnauthorized is returned when a protected route has no caller identity.
func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, nil)
}

// NewForbidden is returned when the caller does not own the target record.
func NewForbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newAppError(ErrorTypeForbidden, http.StatusForbidden, message, nil)
}

// NewNotFound creates a not found error
func NewNotFound(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewEncryptionFailed wraps a gateway failure on the encrypt direction.
func NewEncryptionFailed(err error) *AppError {
	return newAppError(ErrorTypeEncryptionFailed, http.StatusInternalServerError, "encryption failed", err)
}

// NewDecryptionFailed wraps a gateway failure on the decrypt direction.
func NewDecryptionFailed(err error) *AppError {
	return newAppError(ErrorTypeDecryptionFailed, http.StatusInternalServerError, "decryption failed", err)
}

// NewStorageFailed wraps a record store failure.
func NewStorageFailed(operation string, err error) *AppError {
	return newAppError(ErrorTypeStorageFailed, http.StatusInternalServerError,
		fmt.Sprintf("storage operation '%s' failed", operation), err).
		WithDetails(map[string]interface{}{"operation": operation})
}

// NewNotificationFailed is never returned to a client; it only shows up in logs.
func NewNotificationFailed(channel string, err error) *AppError {
	return newAppError(ErrorTypeNotificationFailed, http.StatusInternalServerError,
		fmt.Sprintf("notification on '%s' failed", channel), err)
}

// NewUnexpected creates an internal error
func NewUnexpected(message string, err error) *AppError {
	return newAppError(ErrorTypeUnexpected, http.StatusInternalServerError, message, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

func IsBadRequest(err error) bool {
	return IsType(err, ErrorTypeBadRequest)
}

func IsForbidden(err error) bool {
	return IsType(err, ErrorTypeForbidden)
}

// StatusOf reports the HTTP status an error maps to.
func StatusOf(err error) int {
	if appErr := GetAppError(err); appErr != nil && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
