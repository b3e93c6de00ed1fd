package usermanagement

import (
	"log/slog"
	"time"

	jwthandling "github.com/learnhub-io/lms-backend/pkg/jwt-handling"
	"github.com/learnhub-io/lms-backend/pkg/user-management/pwhash"
	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"
)

const (
	OTP_LENGTH                  = 6
	EMAIL_VERIFICATION_CODE_TTL = 15 * time.Minute

	PASSWORD_RESET_TOKEN_TTL        = time.Hour
	PASSWORD_RESET_MAX_ATTEMPTS     = 5
	PASSWORD_RESET_LOCKOUT_DURATION = time.Hour

	// Fixed delay performed for non-existing accounts in ForgotPassword to
	// keep response timing comparable to the real path.
	enumerationMitigationDelay = 50 * time.Millisecond
)

// Service implements the credential and session lifecycle flows on top of a
// UserStore. All cross-request coordination happens through the store's
// atomic conditional updates; the service itself holds no mutable state.
type Service struct {
	store  UserStore
	hasher *pwhash.Hasher
	tokens *jwthandling.TokenIssuer
	emails EmailSender

	now   func() time.Time
	sleep func(time.Duration)

	// hash of a random throwaway password, compared against when an account
	// lookup fails so the login path does equivalent work either way
	dummyPasswordHash string
}

func NewService(
	store UserStore,
	hasher *pwhash.Hasher,
	tokens *jwthandling.TokenIssuer,
	emails EmailSender,
) (*Service, error) {
	dummyPassword, err := umUtils.GenerateUniqueTokenString()
	if err != nil {
		return nil, err
	}
	dummyPasswordHash, err := hasher.HashPassword(dummyPassword)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:             store,
		hasher:            hasher,
		tokens:            tokens,
		emails:            emails,
		now:               time.Now,
		sleep:             time.Sleep,
		dummyPasswordHash: dummyPasswordHash,
	}, nil
}

// GetUser returns a single account without its credential material.
func (s *Service) GetUser(userID string) (userTypes.User, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return userTypes.User{}, ErrAccountNotFound
	}
	return user.Sanitize(), nil
}

func (s *Service) logEmailError(event string, email string, err error) {
	slog.Error(event, slog.String("email", umUtils.BlurEmailAddress(email)), slog.String("error", err.Error()))
}
