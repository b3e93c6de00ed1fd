package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ROLE_STUDENT    = "student"
	ROLE_INSTRUCTOR = "instructor"
	ROLE_ADMIN      = "admin"
)

const MAX_REFRESH_SESSIONS = 5

type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Account         Account          `bson:"account" json:"account"`
	RefreshSessions []RefreshSession `bson:"refreshSessions" json:"refreshSessions,omitempty"`
	Timestamps      Timestamps       `bson:"timestamps" json:"timestamps"`
}

type Account struct {
	Username           string `bson:"username" json:"username"`
	Email              string `bson:"email" json:"email"`
	FullName           string `bson:"fullName" json:"fullName"`
	Password           string `bson:"password" json:"password,omitempty"`
	Role               string `bson:"role" json:"role"`
	IsActive           bool   `bson:"isActive" json:"isActive"`
	AccountConfirmedAt int64  `bson:"accountConfirmedAt" json:"accountConfirmedAt"`
	AvatarURL          string `bson:"avatarUrl" json:"avatarUrl,omitempty"`

	VerificationCode VerificationCode `bson:"verificationCode" json:"verificationCode,omitempty"`
	PasswordReset    PasswordReset    `bson:"passwordReset" json:"passwordReset,omitempty"`
}

type VerificationCode struct {
	Code      string `bson:"code" json:"code,omitempty"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt,omitempty"`
	ExpiresAt int64  `bson:"expiresAt" json:"expiresAt,omitempty"`
}

type PasswordReset struct {
	TokenHash   string `bson:"tokenHash" json:"tokenHash,omitempty"`
	ExpiresAt   int64  `bson:"expiresAt" json:"expiresAt,omitempty"`
	Attempts    int64  `bson:"attempts" json:"attempts,omitempty"`
	LockedUntil int64  `bson:"lockedUntil" json:"lockedUntil,omitempty"`
}

// RefreshSession represents one logged-in device. The plaintext refresh token
// is never stored, only its hash.
type RefreshSession struct {
	TokenHash string `bson:"tokenHash" json:"tokenHash"`
	UserAgent string `bson:"userAgent" json:"userAgent"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
	ExpiresAt int64  `bson:"expiresAt" json:"expiresAt"`
}

type Timestamps struct {
	CreatedAt          int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt          int64 `bson:"updatedAt" json:"updatedAt"`
	LastLogin          int64 `bson:"lastLogin" json:"lastLogin"`
	LastTokenRefresh   int64 `bson:"lastTokenRefresh" json:"lastTokenRefresh"`
	LastPasswordChange int64 `bson:"lastPasswordChange" json:"lastPasswordChange"`
}

func (u User) IsEmailVerified() bool {
	return u.Account.AccountConfirmedAt > 0
}

// Sanitize strips password hash, verification/reset token fields and session
// hashes before the user crosses the API boundary.
func (u User) Sanitize() User {
	u.Account.Password = ""
	u.Account.VerificationCode = VerificationCode{}
	u.Account.PasswordReset = PasswordReset{}
	u.RefreshSessions = nil
	return u
}
