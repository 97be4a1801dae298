package answer

import (
	"errors"
	"fmt"
)

// Class partitions pipeline failures into the categories the HTTP layer maps
// to status codes and user-facing messages.
type Class int

const (
	// ClassClientInput is a caller mistake (missing/empty required field).
	ClassClientInput Class = iota

	// ClassConfig is a deployment problem (missing provider credential).
	// Fatal until the operator fixes the configuration.
	ClassConfig

	// ClassUpstream is a dependency failure (embedding or LLM call).
	ClassUpstream

	// ClassRetrieval is a vector store failure during search.
	ClassRetrieval
)

// Error is a classified pipeline failure. Message is safe to show to the
// caller; Err carries the internal detail and is only ever logged.
type Error struct {
	// Class selects the HTTP mapping.
	Class Class

	// Message is the user-facing error text.
	Message string

	// Err is the wrapped internal cause. Nil for pure client-input errors.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the internal cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a classified *Error from err, or wraps err as an
// upstream failure when it carries no classification.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Class: ClassUpstream, Message: "Something went wrong", Err: err}
}
