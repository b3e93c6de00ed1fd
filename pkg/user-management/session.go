package usermanagement

import (
	"log/slog"

	"github.com/google/uuid"

	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// seconds until the access token expires
	ExpiresIn int64
}

type LoginResult struct {
	User  userTypes.User
	Token TokenPair
}

// Login authenticates by username or email. The password comparison runs even
// when the account is missing or unverified, so response timing does not
// reveal which check failed.
func (s *Service) Login(identifier string, password string, userAgent string) (LoginResult, error) {
	identifier = umUtils.SanitizeEmail(identifier)

	user, err := s.store.GetUserByUsernameOrEmail(identifier)
	if err != nil {
		// equivalent work against a throwaway hash
		_, _ = s.hasher.ComparePasswordWithHash(s.dummyPasswordHash, password)
		return LoginResult{}, ErrAccountNotFound
	}

	match, err := s.hasher.ComparePasswordWithHash(user.Account.Password, password)
	if err != nil {
		return LoginResult{}, err
	}

	if !user.IsEmailVerified() {
		return LoginResult{}, ErrEmailNotVerified
	}
	if !match {
		slog.Warn("login attempt with wrong password", slog.String("userID", user.ID.Hex()))
		return LoginResult{}, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	pair, session, err := s.issueTokenPair(user, sessionID, userAgent)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.store.AddRefreshSession(user.ID.Hex(), session); err != nil {
		return LoginResult{}, err
	}

	slog.Info("login successful", slog.String("userID", user.ID.Hex()))
	return LoginResult{
		User:  user.Sanitize(),
		Token: pair,
	}, nil
}

// Refresh rotates a refresh token. A structurally valid token that no longer
// matches any stored session hash is treated as stolen-after-rotation: every
// session of the account is wiped before the call fails.
func (s *Service) Refresh(presentedToken string) (LoginResult, error) {
	claims, valid, err := s.tokens.ValidateRefreshToken(presentedToken)
	if err != nil || !valid {
		return LoginResult{}, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(claims.Subject)
	if err != nil {
		return LoginResult{}, ErrInvalidRefreshToken
	}

	if len(user.RefreshSessions) == 0 {
		return LoginResult{}, ErrNoActiveSessions
	}

	matched, found := s.findSessionByToken(user.RefreshSessions, presentedToken)
	if !found {
		// reuse detection: valid signature but already rotated out
		slog.Warn("refresh token reuse detected, invalidating all sessions", slog.String("userID", user.ID.Hex()))
		if err := s.store.ClearRefreshSessions(user.ID.Hex()); err != nil {
			slog.Error("failed to clear refresh sessions", slog.String("error", err.Error()), slog.String("userID", user.ID.Hex()))
		}
		return LoginResult{}, ErrSessionReuse
	}

	now := s.now().Unix()
	if matched.ExpiresAt < now {
		if err := s.store.RemoveRefreshSession(user.ID.Hex(), matched.TokenHash); err != nil {
			slog.Error("failed to remove expired refresh session", slog.String("error", err.Error()), slog.String("userID", user.ID.Hex()))
		}
		return LoginResult{}, ErrRefreshExpired
	}

	newRefreshToken, err := s.tokens.GenerateRefreshToken(user.ID.Hex(), claims.SessionID)
	if err != nil {
		return LoginResult{}, err
	}
	newTokenHash, err := s.hasher.HashToken(newRefreshToken)
	if err != nil {
		return LoginResult{}, err
	}

	newExpiresAt := now + int64(s.tokens.RefreshExpiresIn().Seconds())
	ok, err := s.store.RotateRefreshSession(user.ID.Hex(), matched.TokenHash, newTokenHash, newExpiresAt, now)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		// a concurrent request already rotated this session
		return LoginResult{}, ErrRefreshConflict
	}

	accessToken, err := s.tokens.GenerateAccessToken(
		user.ID.Hex(),
		user.Account.Role,
		user.Account.IsActive,
		user.IsEmailVerified(),
		claims.SessionID,
	)
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("refresh token rotated", slog.String("userID", user.ID.Hex()))
	return LoginResult{
		User: user.Sanitize(),
		Token: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresIn:    int64(s.tokens.AccessExpiresIn().Seconds()),
		},
	}, nil
}

// Logout removes the session matching the presented refresh token. It is best
// effort: a missing, malformed or already rotated token is not an error, the
// caller clears its client side state regardless.
func (s *Service) Logout(presentedToken string) {
	claims, valid, err := s.tokens.ValidateRefreshToken(presentedToken)
	if err != nil || !valid {
		return
	}

	user, err := s.store.GetUserByID(claims.Subject)
	if err != nil {
		return
	}

	matched, found := s.findSessionByToken(user.RefreshSessions, presentedToken)
	if !found {
		return
	}

	if err := s.store.RemoveRefreshSession(user.ID.Hex(), matched.TokenHash); err != nil {
		slog.Error("failed to remove refresh session during logout", slog.String("error", err.Error()), slog.String("userID", user.ID.Hex()))
		return
	}
	slog.Info("user logged out", slog.String("userID", user.ID.Hex()))
}

// RevokeAllSessions wipes every refresh session of the account, forcing a new
// login on all devices.
func (s *Service) RevokeAllSessions(userID string) error {
	return s.store.ClearRefreshSessions(userID)
}

// findSessionByToken scans the stored hashes for the presented plaintext.
// Token hashes cannot be looked up by equality, so a linear scan over the
// bounded session list is required.
func (s *Service) findSessionByToken(sessions []userTypes.RefreshSession, presentedToken string) (userTypes.RefreshSession, bool) {
	for _, session := range sessions {
		match, err := s.hasher.CompareTokenWithHash(session.TokenHash, presentedToken)
		if err != nil {
			slog.Error("failed to compare session hash", slog.String("error", err.Error()))
			continue
		}
		if match {
			return session, true
		}
	}
	return userTypes.RefreshSession{}, false
}

func (s *Service) issueTokenPair(user userTypes.User, sessionID string, userAgent string) (TokenPair, userTypes.RefreshSession, error) {
	accessToken, err := s.tokens.GenerateAccessToken(
		user.ID.Hex(),
		user.Account.Role,
		user.Account.IsActive,
		user.IsEmailVerified(),
		sessionID,
	)
	if err != nil {
		return TokenPair{}, userTypes.RefreshSession{}, err
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID.Hex(), sessionID)
	if err != nil {
		return TokenPair{}, userTypes.RefreshSession{}, err
	}

	tokenHash, err := s.hasher.HashToken(refreshToken)
	if err != nil {
		return TokenPair{}, userTypes.RefreshSession{}, err
	}

	now := s.now().Unix()
	session := userTypes.RefreshSession{
		TokenHash: tokenHash,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now + int64(s.tokens.RefreshExpiresIn().Seconds()),
	}

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessExpiresIn().Seconds()),
	}
	return pair, session, nil
}
