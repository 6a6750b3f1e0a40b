// Package errors defines the structured error types used across docnav.
//
// Every failure surfaced to the CLI is either a *DocnavError, which carries a
// category and a stable code, or one of the navigation-specific errors
// (InvalidNodeError, RouteCollisionError) that can be converted to one.
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
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// DocnavError is a structured error type with context.
type DocnavError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	FilePath    string
	NodePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *DocnavError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	if e.NodePath != "" {
		parts = append(parts, "node:"+e.NodePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *DocnavError) Unwrap() error {
	return e.Cause
}

// Is matches another DocnavError with the same type and code.
func (e *DocnavError) Is(target error) bool {
	var t *DocnavError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *DocnavError) WithContext(key string, value interface{}) *DocnavError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation records the file the error refers to.
func (e *DocnavError) WithLocation(filePath string) *DocnavError {
	e.FilePath = filePath

	return e
}

// WithNode records the navigation node path the error refers to.
func (e *DocnavError) WithNode(nodePath string) *DocnavError {
	e.NodePath = nodePath

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *DocnavError {
	return &DocnavError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *DocnavError {
	return &DocnavError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *DocnavError {
	return &DocnavError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *DocnavError {
	return &DocnavError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable reports whether err can be fixed by editing the navigation,
// so a watcher should keep the last result and wait for the next change.
// Invalid nodes are always recoverable.
func IsRecoverable(err error) bool {
	var de *DocnavError
	if errors.As(err, &de) {
		return de.Recoverable
	}

	var ne *InvalidNodeError
	return errors.As(err, &ne)
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	var de *DocnavError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeConfig
	}

	return false
}

// IsValidationError checks if an error comes from navigation or input validation.
func IsValidationError(err error) bool {
	var de *DocnavError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeValidation
	}

	var ne *InvalidNodeError
	return errors.As(err, &ne)
}

// Common error codes.
const (
	ErrCodeInvalidNode      = "ERR_INVALID_NODE"
	ErrCodeRouteCollision   = "ERR_ROUTE_COLLISION"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeFileRead         = "ERR_FILE_READ"
	ErrCodeFileWrite        = "ERR_FILE_WRITE"
	ErrCodeUnsupportedInput = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)
