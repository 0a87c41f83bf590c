// Package errors provides the structured error types shared by the render
// pipeline, the component registry, configuration loading and the CLI.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeInvalidName      = "ERR_INVALID_COMPONENT_NAME"
	ErrCodeCaseCollision    = "ERR_CASE_COLLISION"
	ErrCodeNilComponent     = "ERR_NIL_COMPONENT"
	ErrCodeUnknownComponent = "ERR_UNKNOWN_COMPONENT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeParseFailed      = "ERR_PARSE_FAILED"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
)

// Sentinel errors for errors.Is checks. They match any *Error carrying the
// same type and code.
var (
	ErrInvalidComponentName = &Error{Type: ErrorTypeValidation, Code: ErrCodeInvalidName}
	ErrCaseCollision        = &Error{Type: ErrorTypeValidation, Code: ErrCodeCaseCollision}
	ErrNilComponent         = &Error{Type: ErrorTypeValidation, Code: ErrCodeNilComponent}
	ErrUnknownComponent     = &Error{Type: ErrorTypeValidation, Code: ErrCodeUnknownComponent}
)

// Error is a structured error type with context.
type Error struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
	FilePath  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component

	return e
}

// WithFile adds the source file the error relates to.
func (e *Error) WithFile(path string) *Error {
	e.FilePath = path

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapRender wraps a failure raised while parsing or rendering a document.
func WrapRender(err error, code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Type:    ErrorTypeRender,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsValidationError checks if an error is validation-related.
func IsValidationError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrorTypeValidation
	}

	return false
}
