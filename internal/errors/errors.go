package errors

import (
	"errors"
	"fmt"
)

// Common error types for the coworking client
var (
	// Session errors
	ErrNoToken       = errors.New("no session token")
	ErrNotFound      = errors.New("not found")
	ErrMalformedJWT  = errors.New("token is not a JWT")
	ErrTokenNotFound = errors.New("token not found in response")

	// Configuration errors
	ErrMissingBaseURL     = errors.New("base URL is required")
	ErrInvalidBaseURL     = errors.New("invalid base URL")
	ErrUnsupportedBackend = errors.New("unsupported session backend")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// New returns an error with the given text
func New(text string) error {
	return errors.New(text)
}
