package service

import "errors"

// Account and credential errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateEmail       = errors.New("duplicate_email")
	ErrNotFound             = errors.New("not_found")
	ErrConcurrencyConflict  = errors.New("concurrency_conflict")
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrInvalidSecurityCode  = errors.New("invalid_security_code")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrEmailNotVerified     = errors.New("email_not_verified")

	// ErrMissingRequiredClaim means an external provider integration did not
	// supply a claim needed to create the account. It is a configuration
	// defect, not a user error.
	ErrMissingRequiredClaim = errors.New("missing required claim")

	// ErrExternalLoginConflict is returned when the provider key belongs to
	// another active account.
	ErrExternalLoginConflict = errors.New("external login conflict")
)

// MFA errors.
var (
	ErrInvalidCode       = errors.New("invalid TOTP code")
	ErrMFANotEnrolled    = errors.New("MFA not enrolled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
)

// Token grant errors.
var (
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidScope    = errors.New("invalid_scope")
	ErrInvalidRefresh  = errors.New("invalid_refresh_token")
	ErrInvalidGrant    = errors.New("invalid_grant")
	ErrTooManyAttempts = errors.New("too_many_attempts")
)
