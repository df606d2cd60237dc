package errors

import (
	"errors"
	"fmt"
)

// Common error types for the upload front end
var (
	// Credential errors
	ErrMissingCredential   = errors.New("missing credential")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrInvalidSession      = errors.New("invalid session")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnsupportedDriver  = errors.New("unsupported storage driver")

	// Routing errors
	ErrRouteNotFound  = errors.New("route not found")
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrInvalidRoute   = errors.New("invalid route")

	// Upstream errors
	ErrUpstream = errors.New("upstream request failed")
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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
