package errors

import "errors"

// Common error types for the registry's authentication core
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveIdentity   = errors.New("identity is inactive")

	// Session errors
	ErrInvalidSession = errors.New("invalid session")

	// Authorization errors
	ErrInsufficientRole = errors.New("insufficient role")

	// Request errors
	ErrMalformedRequest = errors.New("malformed request")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)
