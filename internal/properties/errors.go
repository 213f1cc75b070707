package properties

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrValidation marks bad search filters.
	ErrValidation = errors.New("properties: validation failed")
	// ErrNoProperties is returned when no provider produced a result.
	ErrNoProperties = errors.New("no properties from any source")
	// ErrApifyNotConfigured is returned when no API token is set.
	ErrApifyNotConfigured = errors.New("properties: apify api token not configured")
)

// ValidationError describes a bad search filter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FetchError reports a search where every attempted provider failed. It names
// the city so the message can be shown to the user.
type FetchError struct {
	City   string
	Causes map[string]error
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for name, err := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %v", name, err))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%v in %s", ErrNoProperties, e.City)
	}
	slices.Sort(parts)
	return fmt.Sprintf("%v in %s (%s)", ErrNoProperties, e.City, strings.Join(parts, "; "))
}

func (e *FetchError) Unwrap() error { return ErrNoProperties }
