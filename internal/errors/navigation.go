package errors

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidNodeError reports a navigation entry that cannot be used.
type InvalidNodeError struct {
	// Path locates the node, e.g. "[2].items[0]".
	Path   string
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidNodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid navigation node %s: field '%s': %s", e.Path, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid navigation node %s: %s", e.Path, e.Reason)
}

// ToDocnavError converts the node error to a DocnavError.
func (e *InvalidNodeError) ToDocnavError() *DocnavError {
	de := NewValidationError(ErrCodeInvalidNode, e.Error()).WithNode(e.Path)
	if e.Field != "" {
		de.WithContext("field", e.Field)
	}
	return de
}

// NewInvalidNodeError creates an InvalidNodeError.
func NewInvalidNodeError(path, field, reason string) *InvalidNodeError {
	return &InvalidNodeError{Path: path, Field: field, Reason: reason}
}

// RouteCollisionError reports two top-level sections that resolve to the same
// route key. The later section wins.
type RouteCollisionError struct {
	Key      string
	Previous string
	Current  string
}

// Error implements the error interface.
func (e *RouteCollisionError) Error() string {
	return fmt.Sprintf("route /%s: section %q overrides %q", e.Key, e.Current, e.Previous)
}

// ToDocnavError converts the collision to a recoverable DocnavError.
func (e *RouteCollisionError) ToDocnavError() *DocnavError {
	return NewValidationError(ErrCodeRouteCollision, e.Error()).
		WithContext("route", "/"+e.Key).
		WithContext("previous", e.Previous).
		WithContext("current", e.Current)
}

// NodeErrors collects every problem found in one navigation tree.
type NodeErrors struct {
	Errors []error
}

// Add appends err if it is not nil.
func (ne *NodeErrors) Add(err error) {
	if err == nil {
		return
	}
	ne.Errors = append(ne.Errors, err)
}

// HasErrors returns true if any error was collected.
func (ne *NodeErrors) HasErrors() bool {
	return len(ne.Errors) > 0
}

// ErrorOrNil returns the collection as an error, or nil when it is empty.
func (ne *NodeErrors) ErrorOrNil() error {
	if !ne.HasErrors() {
		return nil
	}
	return ne
}

// Error implements the error interface.
func (ne *NodeErrors) Error() string {
	switch len(ne.Errors) {
	case 0:
		return "no navigation errors"
	case 1:
		return ne.Errors[0].Error()
	}

	msgs := make([]string, 0, len(ne.Errors))
	for _, err := range ne.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("navigation has %d errors: %s", len(ne.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (ne *NodeErrors) Unwrap() []error {
	return ne.Errors
}

// AsNodeErrors returns the collection inside err, if any.
func AsNodeErrors(err error) (*NodeErrors, bool) {
	var ne *NodeErrors
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
