package auth

import "errors"

var (
	// ErrUserNotFound is returned when no account matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed, expired or mis-signed tokens
	ErrInvalidToken = errors.New("token is not valid")

	// ErrValidation marks request validation failures
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending field.
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
