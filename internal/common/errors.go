// Package common defines shared constants and sentinel errors used across
// the invkeeper server and its tools. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrStorageFailure = errors.New("storage failure")

	// Registration errors.
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Auth errors. ErrInvalidCredentials is returned both for unknown users
	// and for wrong passwords.
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrTokenInvalidOrExpired = errors.New("token invalid or expired")
	ErrForbidden             = errors.New("access denied — admins only")
	ErrTooManyAttempts       = errors.New("too many failed login attempts")

	// Validation errors.
	ErrValidation = errors.New("validation error")
)
