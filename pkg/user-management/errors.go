package usermanagement

import "errors"

var (
	ErrAccountExists   = errors.New("an account with this username or email already exists")
	ErrAccountNotFound = errors.New("account not found")

	ErrAlreadyVerified         = errors.New("account is already verified")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrVerificationCodeExpired = errors.New("verification code expired")

	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNoActiveSessions    = errors.New("no active sessions")
	// ErrSessionReuse signals that a validly signed refresh token was presented
	// that is no longer in the live session set. All sessions are wiped before
	// this error is returned.
	ErrSessionReuse    = errors.New("refresh token reuse detected, all sessions invalidated")
	ErrRefreshExpired  = errors.New("refresh session expired")
	ErrRefreshConflict = errors.New("refresh token was modified by another request, try again")

	ErrResetInvalidOrExpired = errors.New("password reset token invalid or expired")
	ErrInvalidResetToken     = errors.New("invalid password reset token")
	ErrAccountLocked         = errors.New("account temporarily locked")
	ErrTooManyResetAttempts  = errors.New("too many failed reset attempts, account locked")
	ErrResetAlreadyUsed      = errors.New("password reset token already used")

	ErrEmailSendFailed = errors.New("failed to send email")
)
