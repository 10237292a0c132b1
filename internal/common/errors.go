// Package common defines shared constants and sentinel errors used across
// the threatscope server and its tooling. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("admin access required")

	// Validation errors.
	ErrValidation      = errors.New("validation error")
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrNoFileProvided  = fmt.Errorf("%w: no file provided", ErrValidation)
	ErrNoPhotoProvided = fmt.Errorf("%w: no photo provided", ErrValidation)
	ErrBadFilename     = fmt.Errorf("%w: invalid filename", ErrValidation)

	// Auth errors. Each one is also an ErrorUnauthorized.
	ErrTokenMissing = fmt.Errorf("%w: token missing", ErrorUnauthorized)
	ErrTokenInvalid = fmt.Errorf("%w: token invalid", ErrorUnauthorized)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrorUnauthorized)
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrorUnauthorized)

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrorUnauthorized)
)

// Validationf builds an ErrValidation carrying a request-specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
