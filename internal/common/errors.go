// Package common defines shared constants and sentinel errors used across
// framegate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Connection errors: the local user has no linked remote account.
	ErrNotConnected = errors.New("user not connected")

	// Secret sealing errors.
	ErrorSealedSecret = errors.New("sealed secret is corrupt")
)
