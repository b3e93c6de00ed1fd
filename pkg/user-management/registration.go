package usermanagement

import (
	"crypto/subtle"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"
)

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

type RegisterResult struct {
	User userTypes.User
	// VerificationEmailSent is false when account creation succeeded but the
	// verification email could not be delivered; the client should use the
	// resend path.
	VerificationEmailSent bool
}

// Register creates a new unverified account and sends the email verification
// code. A verified account holding the same username or email is a conflict;
// unverified holders are treated as abandoned registrations and replaced.
func (s *Service) Register(input RegisterInput) (RegisterResult, error) {
	email := umUtils.SanitizeEmail(input.Email)
	username := umUtils.SanitizeUsername(input.Username)

	existing, err := s.store.GetUsersByEmailOrUsername(email, username)
	if err != nil {
		return RegisterResult{}, err
	}
	for _, other := range existing {
		if other.IsEmailVerified() {
			return RegisterResult{}, ErrAccountExists
		}
	}
	for _, other := range existing {
		// abandoned registration, replaced by the new attempt
		if err := s.store.DeleteUser(other.ID.Hex()); err != nil {
			return RegisterResult{}, err
		}
		slog.Info("removed unverified account for re-registration", slog.String("userID", other.ID.Hex()))
	}

	password, err := s.hasher.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	code, err := umUtils.GenerateOTPCode(OTP_LENGTH)
	if err != nil {
		return RegisterResult{}, err
	}

	now := s.now().Unix()
	user := userTypes.User{
		Account: userTypes.Account{
			Username: username,
			Email:    email,
			FullName: input.FullName,
			Password: password,
			Role:     userTypes.ROLE_STUDENT,
			IsActive: true,
			VerificationCode: userTypes.VerificationCode{
				Code:      code,
				CreatedAt: now,
				ExpiresAt: now + int64(EMAIL_VERIFICATION_CODE_TTL.Seconds()),
			},
		},
		Timestamps: userTypes.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	id, err := s.store.CreateUser(user)
	if err != nil {
		return RegisterResult{}, err
	}
	user.ID, _ = primitive.ObjectIDFromHex(id)

	// account creation is not rolled back on email failure
	emailSent := true
	if err := s.emails.SendVerificationCode(email, input.FullName, code, user.Account.VerificationCode.ExpiresAt); err != nil {
		s.logEmailError("failed to send verification email", email, err)
		emailSent = false
	}

	slog.Info("account registered", slog.String("userID", id))
	return RegisterResult{
		User:                  user.Sanitize(),
		VerificationEmailSent: emailSent,
	}, nil
}

// VerifyEmail confirms the account when the submitted code matches and is not
// expired.
func (s *Service) VerifyEmail(email string, code string) (userTypes.User, error) {
	email = umUtils.SanitizeEmail(email)

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return userTypes.User{}, ErrAccountNotFound
	}
	if user.IsEmailVerified() {
		return userTypes.User{}, ErrAlreadyVerified
	}

	stored := user.Account.VerificationCode
	if stored.Code == "" || subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		return userTypes.User{}, ErrInvalidVerificationCode
	}

	now := s.now().Unix()
	if stored.ExpiresAt < now {
		return userTypes.User{}, ErrVerificationCodeExpired
	}

	if err := s.store.ConfirmAccount(user.ID.Hex(), now); err != nil {
		return userTypes.User{}, err
	}

	slog.Info("email verified", slog.String("userID", user.ID.Hex()))
	user.Account.AccountConfirmedAt = now
	return user.Sanitize(), nil
}

// ResendVerificationCode regenerates the code and resends the email. Unlike
// registration, a delivery failure propagates to the caller, since delivering
// the code is the sole purpose of this operation.
func (s *Service) ResendVerificationCode(email string) error {
	email = umUtils.SanitizeEmail(email)

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		return ErrAccountNotFound
	}
	if user.IsEmailVerified() {
		return ErrAlreadyVerified
	}

	code, err := umUtils.GenerateOTPCode(OTP_LENGTH)
	if err != nil {
		return err
	}

	now := s.now().Unix()
	verificationCode := userTypes.VerificationCode{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now + int64(EMAIL_VERIFICATION_CODE_TTL.Seconds()),
	}
	if err := s.store.SetVerificationCode(user.ID.Hex(), verificationCode); err != nil {
		return err
	}

	if err := s.emails.SendVerificationCode(email, user.Account.FullName, code, verificationCode.ExpiresAt); err != nil {
		s.logEmailError("failed to resend verification email", email, err)
		return ErrEmailSendFailed
	}
	return nil
}
