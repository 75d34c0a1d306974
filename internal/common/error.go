package common

import "errors"

// Sentinel errors shared across layers. Callers should use errors.Is to
// match these values.
var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (malformed input, no side effects).
	ErrInvalidUsernameFormat = errors.New("invalid username format")
	ErrInvalidPasswordFormat = errors.New("invalid password format")
	ErrInvalidCodeFormat     = errors.New("invalid registration code format")

	// Registration code ledger errors.
	ErrCodeNotAvailable  = errors.New("registration code not available")
	ErrInvalidTransition = errors.New("invalid registration code transition")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Credential vault errors.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Deployment trigger errors.
	ErrBusy             = errors.New("deployment already in progress")
	ErrDeploymentFailed = errors.New("deployment failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
