package jwthandling

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Information an access token encodes. Role and active flag are a snapshot at
// issuing time, so authorization middleware can run without a store lookup.
type LmsUserClaims struct {
	Role             string `json:"role,omitempty"`
	IsActive         bool   `json:"isActive,omitempty"`
	AccountConfirmed bool   `json:"accountConfirmed,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Refresh tokens carry only the account id and session correlation id; all
// other state lives server side in the refresh session list.
type RefreshTokenClaims struct {
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs access and refresh tokens with distinct secrets, so
// leaking one key does not compromise the other token class.
type TokenIssuer struct {
	accessSignKey    string
	refreshSignKey   string
	accessExpiresIn  time.Duration
	refreshExpiresIn time.Duration
	now              func() time.Time
}

func NewTokenIssuer(accessSignKey string, refreshSignKey string, accessExpiresIn time.Duration, refreshExpiresIn time.Duration) (*TokenIssuer, error) {
	if accessSignKey == "" || refreshSignKey == "" {
		return nil, errors.New("token sign keys must not be empty")
	}
	if accessSignKey == refreshSignKey {
		return nil, errors.New("access and refresh token sign keys must differ")
	}
	return &TokenIssuer{
		accessSignKey:    accessSignKey,
		refreshSignKey:   refreshSignKey,
		accessExpiresIn:  accessExpiresIn,
		refreshExpiresIn: refreshExpiresIn,
		now:              time.Now,
	}, nil
}

// SetClock replaces the time source used for issued timestamps and expiry
// validation. Intended for tests.
func (ti *TokenIssuer) SetClock(now func() time.Time) {
	ti.now = now
}

func (ti *TokenIssuer) AccessExpiresIn() time.Duration {
	return ti.accessExpiresIn
}

func (ti *TokenIssuer) RefreshExpiresIn() time.Duration {
	return ti.refreshExpiresIn
}

func (ti *TokenIssuer) GenerateAccessToken(
	userID string,
	role string,
	isActive bool,
	accountConfirmed bool,
	sessionID string,
) (tokenString string, err error) {
	claims := LmsUserClaims{
		role,
		isActive,
		accountConfirmed,
		sessionID,
		jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(ti.now().Add(ti.accessExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(ti.now()),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(ti.accessSignKey))
	return
}

func (ti *TokenIssuer) GenerateRefreshToken(userID string, sessionID string) (tokenString string, err error) {
	claims := RefreshTokenClaims{
		sessionID,
		// the jti makes consecutive tokens for the same session distinct,
		// so a rotation can never reissue the plaintext it just replaced
		jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(ti.now().Add(ti.refreshExpiresIn)),
			IssuedAt:  jwt.NewNumericDate(ti.now()),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(ti.refreshSignKey))
	return
}

func (ti *TokenIssuer) ValidateAccessToken(tokenString string) (claims *LmsUserClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &LmsUserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ti.accessSignKey), nil
	}, jwt.WithTimeFunc(ti.now))
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*LmsUserClaims)
	valid = valid && token.Valid
	return
}

func (ti *TokenIssuer) ValidateRefreshToken(tokenString string) (claims *RefreshTokenClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ti.refreshSignKey), nil
	}, jwt.WithTimeFunc(ti.now))
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*RefreshTokenClaims)
	valid = valid && token.Valid
	return
}
