package usermanagement

import (
	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
)

// UserStore is the persistence contract consumed by the flows. The Mongo
// implementation lives in pkg/db/lms-user.
//
// Every mutation of security sensitive fields (refresh sessions, reset token,
// attempt counters, password) must be an atomic update on the store side,
// never a read-modify-write in the application. Methods performing a
// conditional update report a failed precondition through their bool return
// value, which callers must treat as a distinct case from an error.
type UserStore interface {
	CreateUser(user userTypes.User) (id string, err error)
	GetUserByID(id string) (userTypes.User, error)
	GetUserByEmail(email string) (userTypes.User, error)
	GetUserByUsernameOrEmail(identifier string) (userTypes.User, error)
	// GetUsersByEmailOrUsername returns every account claiming either value,
	// for duplicate checks during registration.
	GetUsersByEmailOrUsername(email string, username string) ([]userTypes.User, error)
	DeleteUser(id string) error

	SetVerificationCode(userID string, code userTypes.VerificationCode) error
	// ConfirmAccount marks the account verified and clears the verification
	// code fields in one update.
	ConfirmAccount(userID string, confirmedAt int64) error

	// AddRefreshSession pushes a session entry, keeping only the most recent
	// MAX_REFRESH_SESSIONS entries (oldest evicted first), and records the
	// login timestamp.
	AddRefreshSession(userID string, session userTypes.RefreshSession) error
	// RotateRefreshSession replaces tokenHash and expiresAt of the session
	// entry currently holding oldTokenHash, preserving its createdAt and
	// userAgent. Returns false when no entry with oldTokenHash was found,
	// which means a concurrent request already rotated it.
	RotateRefreshSession(userID string, oldTokenHash string, newTokenHash string, newExpiresAt int64, refreshedAt int64) (bool, error)
	RemoveRefreshSession(userID string, tokenHash string) error
	ClearRefreshSessions(userID string) error

	SetPasswordResetToken(userID string, tokenHash string, expiresAt int64) error
	ClearPasswordResetToken(userID string) error
	// GetUserByEmailWithActiveReset finds the account only when a reset token
	// is stored and not yet expired at the given time.
	GetUserByEmailWithActiveReset(email string, now int64) (userTypes.User, error)
	// IncrementResetAttempts increments the failed attempt counter, but only
	// when the account is not currently locked. Returns the updated user and
	// false when the precondition did not match (account locked).
	IncrementResetAttempts(userID string, now int64) (userTypes.User, bool, error)
	LockAccount(userID string, until int64) error
	// CompletePasswordReset atomically sets the new password hash, wipes all
	// refresh sessions and clears reset token, attempts and lock, conditioned
	// on the stored token hash still matching and the reset not being expired.
	// Returns false when the precondition did not match (token already
	// consumed by a concurrent reset).
	CompletePasswordReset(userID string, expectedTokenHash string, newPasswordHash string, now int64) (bool, error)
}

// EmailSender abstracts the outbound notification emails the flows trigger.
// Implemented by pkg/email-sending on top of the SMTP client.
type EmailSender interface {
	SendVerificationCode(to string, fullName string, code string, expiresAt int64) error
	SendPasswordResetLink(to string, fullName string, token string, expiresAt int64) error
	SendPasswordChangedNotice(to string, fullName string) error
}
