package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Hyperswitch client
var (
	// Local validation errors, never sent to the network
	ErrValidation         = errors.New("validation failed")
	ErrNoPendingTwoFactor = errors.New("no pending two factor token")
	ErrMissingMerchant    = errors.New("merchant id is required")
	ErrMissingProfile     = errors.New("profile id is required")
	ErrUnmappedRoute      = errors.New("no route for entity and method")

	// Authentication errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrTokenExpired     = errors.New("token expired")

	// Transport errors
	ErrConnection = errors.New("connection error, please try again")

	// Store errors
	ErrNotFound = errors.New("not found")
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
