package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a DocnavError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *DocnavError {
	if err == nil {
		return nil
	}

	// Keep location details from an inner DocnavError
	var de *DocnavError
	if errors.As(err, &de) {
		return &DocnavError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       de,
			Context:     de.Context,
			FilePath:    de.FilePath,
			NodePath:    de.NodePath,
			Recoverable: de.Recoverable,
		}
	}

	return &DocnavError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation,
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *DocnavError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *DocnavError {
	if err == nil {
		return nil
	}
	var inner *DocnavError
	if !errors.As(err, &inner) {
		return NewIOError(code, message, err)
	}
	de := Wrap(err, ErrorTypeIO, code, message)
	de.Recoverable = false
	return de
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *DocnavError {
	de := Wrap(err, ErrorTypeConfig, code, message)
	if de != nil {
		de.Recoverable = false
	}
	return de
}

// GetCode extracts the error code from a DocnavError, or returns empty string
func GetCode(err error) string {
	var de *DocnavError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// GetType extracts the error type from a DocnavError, or returns empty string
func GetType(err error) ErrorType {
	var de *DocnavError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}
