package clients

import "errors"

var (
	// ErrClientNotFound is returned when the client id does not resolve
	ErrClientNotFound = errors.New("client not found")

	// ErrNotAuthorized is returned when the actor may not see or change the client
	ErrNotAuthorized = errors.New("not authorized")

	// ErrRevisionConflict is returned when a concurrent write won the compare-and-swap
	ErrRevisionConflict = errors.New("client was modified concurrently")

	// ErrValidation marks request validation failures
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the message shown to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
