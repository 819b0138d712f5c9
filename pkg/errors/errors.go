// Package errors classifies failures so the HTTP layer can pick a status
// code without knowing which store or upstream produced them.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the failure class of an AppError
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeInternal   ErrorType = "INTERNAL"
	// ErrorTypeExternal covers the database, search index and geocoder
	ErrorTypeExternal ErrorType = "EXTERNAL"
	// ErrorTypeUnavailable means an optional backend is not configured
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
)

var statusByType = map[ErrorType]int{
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeExternal:    http.StatusBadGateway,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
}

// AppError is a classified error. Param names the offending query
// parameter for validation failures, when there is one.
type AppError struct {
	Type    ErrorType
	Message string
	Param   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error type to a response status code
func (e *AppError) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Public reports whether Message may be shown to API clients
func (e *AppError) Public() bool {
	return e.Type != ErrorTypeInternal
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewParamError is a validation error about a single query parameter
func NewParamError(param, message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, Param: param}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

func NewExternalError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeExternal, Message: message, Err: err}
}

func NewUnavailableError(message string) *AppError {
	return &AppError{Type: ErrorTypeUnavailable, Message: message}
}

// As extracts the AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}
