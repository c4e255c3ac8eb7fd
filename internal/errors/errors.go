package errors

import (
	"errors"
	"fmt"
)

// Common error types for the booking client
var (
	// Session errors
	ErrNoAccessToken  = errors.New("no access token")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")

	// API errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrRejected           = errors.New("request rejected")
	ErrTransport          = errors.New("transport failure")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrUnsupportedRequest = errors.New("unsupported request")

	// Controller errors
	ErrPageOutOfRange = errors.New("page out of range")
	ErrStaleResponse  = errors.New("stale response discarded")
	ErrNotConfirmed   = errors.New("action not confirmed")
	ErrFormClosed     = errors.New("form is closed")
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
