package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure the way the portal reports it.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeTimeout      ErrorType = "TIMEOUT"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrorTypeNetwork      ErrorType = "NETWORK"
	ErrorTypeExternal     ErrorType = "EXTERNAL"
)

// Status is the HTTP status the portal answers with for an error of type t.
func (t ErrorType) Status() int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeNetwork, ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a classified failure. Errors that came back from the document
// backend carry its status and the endpoint that produced them.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`

	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Endpoint       string `json:"endpoint,omitempty"`

	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause records the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithEndpoint records which backend endpoint failed.
func (e *AppError) WithEndpoint(endpoint string) *AppError {
	e.Endpoint = endpoint
	return e
}

// New creates an error of type t answered with t's status.
func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, HTTPStatus: t.Status()}
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewNotFoundError reports "<resource> not found".
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, resource+" not found")
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(ErrorTypeUnauthorized, message)
}

func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// NewTimeoutError reports that operation ran out of time.
func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("%s timed out", operation))
}

// NewUnavailableError reports a dependency the portal has stopped calling.
func NewUnavailableError(service string) *AppError {
	return New(ErrorTypeUnavailable, service+" is unavailable")
}

func NewNetworkError(message string, err error) *AppError {
	return New(ErrorTypeNetwork, message).WithCause(err)
}

// NewExternalError reports a response from service that could not be used.
func NewExternalError(service string, err error) *AppError {
	return New(ErrorTypeExternal, "unexpected response from "+service).WithCause(err)
}

// FromStatus classifies a non-2xx upstream response by status code alone.
// message is whatever the backend sent back.
func FromStatus(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	var t ErrorType
	switch {
	case status == http.StatusUnauthorized:
		t = ErrorTypeUnauthorized
	case status == http.StatusForbidden:
		t = ErrorTypeForbidden
	case status == http.StatusNotFound:
		t = ErrorTypeNotFound
	case status == http.StatusConflict:
		t = ErrorTypeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		t = ErrorTypeValidation
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		t = ErrorTypeTimeout
	default:
		t = ErrorTypeExternal
	}

	e := New(t, message)
	e.UpstreamStatus = status
	if t == ErrorTypeExternal && status < 500 {
		// pass unusual 4xx codes through as-is
		e.HTTPStatus = status
	}
	return e
}

// GetAppError extracts the AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsNotFound(err error) bool     { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool   { return IsType(err, ErrorTypeValidation) }
func IsUnauthorized(err error) bool { return IsType(err, ErrorTypeUnauthorized) }
func IsForbidden(err error) bool    { return IsType(err, ErrorTypeForbidden) }
func IsUnavailable(err error) bool  { return IsType(err, ErrorTypeUnavailable) }

// Wrap prefixes the message of an AppError with context. Any other error
// becomes an internal error caused by err.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}
