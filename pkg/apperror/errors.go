package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. The HTTP layer maps kinds to status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code a kind is reported with.
func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type returned by services.
type AppError struct {
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Status returns the HTTP status code for the error.
func (e *AppError) Status() int {
	return HTTPStatus(e.Kind)
}

// Common errors
var (
	ErrUnauthorized       = &AppError{Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Kind: KindForbidden, Message: "Forbidden"}
	ErrInvalidCredentials = &AppError{Kind: KindUnauthorized, Message: "Invalid username or password"}
	ErrTokenExpired       = &AppError{Kind: KindUnauthorized, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Kind: KindUnauthorized, Message: "Invalid token"}
)

// New creates an application error of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors ...FieldError) *AppError {
	msg := "Validation failed"
	if len(fieldErrors) == 1 {
		msg = fieldErrors[0].Message
	}
	return &AppError{
		Kind:    KindValidation,
		Message: msg,
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shortcut for a validation error on a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError(FieldError{Field: field, Message: message})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewUnavailableError reports a failing upstream dependency (device, tax office).
func NewUnavailableError(message string, cause error) *AppError {
	return &AppError{Kind: KindUnavailable, Message: message, cause: cause}
}

// Internal wraps an unexpected error. The cause is kept for logging only.
func Internal(format string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: "Internal server error", cause: fmt.Errorf(format+": %w", cause)}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Kind:    KindInternal,
		Message: "Internal server error",
		cause:   err,
	}
}
