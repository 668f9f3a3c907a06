// Package apperror defines the typed failure values returned across service boundaries.
package apperror

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable failure category.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNotFound     Code = "VALUE_NOT_FOUND"
	CodeAlreadyExist Code = "ALREADY_EXISTS"
	CodeBusinessRule Code = "BUSINESS_RULE_VIOLATION"
	CodeDatabase     Code = "DATABASE_ERROR"
	CodeServer       Code = "SERVER_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
)

var statusByCode = map[Code]int{
	CodeValidation:   http.StatusBadRequest,
	CodeNotFound:     http.StatusNotFound,
	CodeAlreadyExist: http.StatusConflict,
	CodeBusinessRule: http.StatusUnprocessableEntity,
	CodeDatabase:     http.StatusInternalServerError,
	CodeServer:       http.StatusInternalServerError,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
}

// AppError is the failure value every service returns through the error interface.
type AppError struct {
	Code       Code           `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError with the HTTP status registered for code.
func New(code Code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Validation reports malformed or missing input.
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// InvalidField reports a single bad field.
func InvalidField(field, reason string) *AppError {
	return New(CodeValidation, fmt.Sprintf("%s %s", field, reason)).WithDetail("field", field)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(resource string, id any) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// AlreadyExists reports a unique-name collision.
func AlreadyExists(resource, name string) *AppError {
	return New(CodeAlreadyExist, fmt.Sprintf("%s '%s' already exists", resource, name)).
		WithDetail("resource", resource).
		WithDetail("name", name)
}

// BusinessRule reports an illegal state transition or domain-rule violation.
func BusinessRule(message string) *AppError {
	return New(CodeBusinessRule, message)
}

// Database wraps a persistence-layer failure. The cause is kept for logs only.
func Database(op string, cause error) *AppError {
	return New(CodeDatabase, "a database error occurred").
		WithDetail("operation", op).
		WithCause(cause)
}

// Server wraps an unanticipated failure.
func Server(cause error) *AppError {
	return New(CodeServer, "an unexpected error occurred").WithCause(cause)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(CodeUnauthorized, message)
}

// Forbidden reports a caller lacking the required permissions.
func Forbidden(missing []string) *AppError {
	return New(CodeForbidden, "access denied: missing permissions").WithDetail("missing", missing)
}

// As extracts an AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or SERVER_ERROR for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeServer
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
