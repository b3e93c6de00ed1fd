package usermanagement

import (
	"log/slog"

	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"
)

// ForgotPassword stores a hashed one-time reset token and mails the plaintext
// to the account holder. For unknown addresses it performs equivalent dummy
// work and returns success, so neither the response nor its timing reveals
// whether the email exists.
func (s *Service) ForgotPassword(email string) error {
	email = umUtils.SanitizeEmail(email)

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		token, genErr := umUtils.GenerateUniqueTokenString()
		if genErr == nil {
			_, _ = s.hasher.HashToken(token)
		}
		s.sleep(enumerationMitigationDelay)
		return nil
	}

	token, err := umUtils.GenerateUniqueTokenString()
	if err != nil {
		return err
	}
	tokenHash, err := s.hasher.HashToken(token)
	if err != nil {
		return err
	}

	expiresAt := s.now().Unix() + int64(PASSWORD_RESET_TOKEN_TTL.Seconds())
	if err := s.store.SetPasswordResetToken(user.ID.Hex(), tokenHash, expiresAt); err != nil {
		return err
	}

	if err := s.emails.SendPasswordResetLink(email, user.Account.FullName, token, expiresAt); err != nil {
		s.logEmailError("failed to send password reset email", email, err)
		// don't leave a pending reset the user never received a token for
		if clearErr := s.store.ClearPasswordResetToken(user.ID.Hex()); clearErr != nil {
			slog.Error("failed to clear password reset token", slog.String("error", clearErr.Error()), slog.String("userID", user.ID.Hex()))
		}
		return ErrEmailSendFailed
	}

	slog.Info("password reset initiated", slog.String("userID", user.ID.Hex()))
	return nil
}

// ResetPassword consumes a reset token. Failed verifications increment the
// attempt counter through a lock-guarded conditional update; the fifth
// failure locks the account for an hour. Success atomically sets the new
// password, wipes every refresh session and clears the reset state.
func (s *Service) ResetPassword(email string, presentedToken string, newPassword string) error {
	email = umUtils.SanitizeEmail(email)
	now := s.now().Unix()

	user, err := s.store.GetUserByEmailWithActiveReset(email, now)
	if err != nil {
		return ErrResetInvalidOrExpired
	}

	reset := user.Account.PasswordReset
	if reset.LockedUntil > now {
		return ErrAccountLocked
	}

	match, err := s.hasher.CompareTokenWithHash(reset.TokenHash, presentedToken)
	if err != nil {
		return err
	}

	if !match {
		updated, ok, err := s.store.IncrementResetAttempts(user.ID.Hex(), now)
		if err != nil {
			return err
		}
		if !ok {
			// another request locked the account in the meantime
			return ErrAccountLocked
		}
		if updated.Account.PasswordReset.Attempts >= PASSWORD_RESET_MAX_ATTEMPTS {
			lockUntil := now + int64(PASSWORD_RESET_LOCKOUT_DURATION.Seconds())
			if err := s.store.LockAccount(user.ID.Hex(), lockUntil); err != nil {
				return err
			}
			slog.Warn("account locked after too many reset attempts", slog.String("userID", user.ID.Hex()))
			return ErrTooManyResetAttempts
		}
		return ErrInvalidResetToken
	}

	newPasswordHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.store.CompletePasswordReset(user.ID.Hex(), reset.TokenHash, newPasswordHash, now)
	if err != nil {
		return err
	}
	if !ok {
		// a concurrent reset already consumed this token
		return ErrResetAlreadyUsed
	}

	// best effort notification, the password change is already done
	if err := s.emails.SendPasswordChangedNotice(email, user.Account.FullName); err != nil {
		s.logEmailError("failed to send password changed notice", email, err)
	}

	slog.Info("password reset successful", slog.String("userID", user.ID.Hex()))
	return nil
}
