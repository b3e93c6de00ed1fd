package usermanagement

import (
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	jwthandling "github.com/learnhub-io/lms-backend/pkg/jwt-handling"
	"github.com/learnhub-io/lms-backend/pkg/user-management/pwhash"
	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
)

// memStore is an in-memory UserStore with the same conditional update
// semantics as the Mongo implementation.
type memStore struct {
	mu    sync.Mutex
	users map[string]userTypes.User

	// invoked once before the next RotateRefreshSession evaluates its
	// precondition, so tests can interleave a competing update
	rotateHook func()
}

func newMemStore() *memStore {
	return &memStore{users: map[string]userTypes.User{}}
}

var errStoreNotFound = errors.New("no document found")

func (m *memStore) CreateUser(user userTypes.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	for _, other := range m.users {
		if other.Account.Email == user.Account.Email || other.Account.Username == user.Account.Username {
			return "", errors.New("duplicate key error")
		}
	}
	m.users[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (m *memStore) GetUserByID(id string) (userTypes.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return userTypes.User{}, errStoreNotFound
	}
	return user, nil
}

func (m *memStore) GetUserByEmail(email string) (userTypes.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Account.Email == email {
			return user, nil
		}
	}
	return userTypes.User{}, errStoreNotFound
}

func (m *memStore) GetUserByUsernameOrEmail(identifier string) (userTypes.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Account.Email == identifier || user.Account.Username == identifier {
			return user, nil
		}
	}
	return userTypes.User{}, errStoreNotFound
}

func (m *memStore) GetUsersByEmailOrUsername(email string, username string) ([]userTypes.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []userTypes.User{}
	for _, user := range m.users {
		if user.Account.Email == email || user.Account.Username == username {
			matches = append(matches, user)
		}
	}
	return matches, nil
}

func (m *memStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return errStoreNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) SetVerificationCode(userID string, code userTypes.VerificationCode) error {
	return m.update(userID, func(user *userTypes.User) {
		user.Account.VerificationCode = code
	})
}

func (m *memStore) ConfirmAccount(userID string, confirmedAt int64) error {
	return m.update(userID, func(user *userTypes.User) {
		user.Account.AccountConfirmedAt = confirmedAt
		user.Account.VerificationCode = userTypes.VerificationCode{}
		user.Timestamps.UpdatedAt = confirmedAt
	})
}

func (m *memStore) AddRefreshSession(userID string, session userTypes.RefreshSession) error {
	return m.update(userID, func(user *userTypes.User) {
		user.RefreshSessions = append(user.RefreshSessions, session)
		if len(user.RefreshSessions) > userTypes.MAX_REFRESH_SESSIONS {
			user.RefreshSessions = user.RefreshSessions[len(user.RefreshSessions)-userTypes.MAX_REFRESH_SESSIONS:]
		}
		user.Timestamps.LastLogin = session.CreatedAt
	})
}

func (m *memStore) RotateRefreshSession(userID string, oldTokenHash string, newTokenHash string, newExpiresAt int64, refreshedAt int64) (bool, error) {
	m.mu.Lock()
	hook := m.rotateHook
	m.rotateHook = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	matched := false
	err := m.update(userID, func(user *userTypes.User) {
		for i := range user.RefreshSessions {
			if user.RefreshSessions[i].TokenHash == oldTokenHash {
				user.RefreshSessions[i].TokenHash = newTokenHash
				user.RefreshSessions[i].ExpiresAt = newExpiresAt
				user.Timestamps.LastTokenRefresh = refreshedAt
				matched = true
				return
			}
		}
	})
	return matched, err
}

func (m *memStore) RemoveRefreshSession(userID string, tokenHash string) error {
	return m.update(userID, func(user *userTypes.User) {
		kept := user.RefreshSessions[:0]
		for _, session := range user.RefreshSessions {
			if session.TokenHash != tokenHash {
				kept = append(kept, session)
			}
		}
		user.RefreshSessions = kept
	})
}

func (m *memStore) ClearRefreshSessions(userID string) error {
	return m.update(userID, func(user *userTypes.User) {
		user.RefreshSessions = []userTypes.RefreshSession{}
	})
}

func (m *memStore) SetPasswordResetToken(userID string, tokenHash string, expiresAt int64) error {
	return m.update(userID, func(user *userTypes.User) {
		user.Account.PasswordReset.TokenHash = tokenHash
		user.Account.PasswordReset.ExpiresAt = expiresAt
	})
}

func (m *memStore) ClearPasswordResetToken(userID string) error {
	return m.update(userID, func(user *userTypes.User) {
		user.Account.PasswordReset.TokenHash = ""
		user.Account.PasswordReset.ExpiresAt = 0
	})
}

func (m *memStore) GetUserByEmailWithActiveReset(email string, now int64) (userTypes.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		reset := user.Account.PasswordReset
		if user.Account.Email == email && reset.TokenHash != "" && reset.ExpiresAt > now {
			return user, nil
		}
	}
	return userTypes.User{}, errStoreNotFound
}

func (m *memStore) IncrementResetAttempts(userID string, now int64) (userTypes.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return userTypes.User{}, false, errStoreNotFound
	}
	if user.Account.PasswordReset.LockedUntil > now {
		return userTypes.User{}, false, nil
	}
	user.Account.PasswordReset.Attempts += 1
	m.users[userID] = user
	return user, true, nil
}

func (m *memStore) LockAccount(userID string, until int64) error {
	return m.update(userID, func(user *userTypes.User) {
		user.Account.PasswordReset.LockedUntil = until
		user.Account.PasswordReset.Attempts = 0
	})
}

func (m *memStore) CompletePasswordReset(userID string, expectedTokenHash string, newPasswordHash string, now int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return false, errStoreNotFound
	}
	reset := user.Account.PasswordReset
	if reset.TokenHash != expectedTokenHash || reset.ExpiresAt <= now {
		return false, nil
	}
	user.Account.Password = newPasswordHash
	user.Account.PasswordReset = userTypes.PasswordReset{}
	user.RefreshSessions = []userTypes.RefreshSession{}
	user.Timestamps.LastPasswordChange = now
	user.Timestamps.UpdatedAt = now
	m.users[userID] = user
	return true, nil
}

func (m *memStore) update(userID string, apply func(*userTypes.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return errStoreNotFound
	}
	apply(&user)
	m.users[userID] = user
	return nil
}

type sentMail struct {
	To        string
	FullName  string
	Code      string
	Token     string
	ExpiresAt int64
}

// mockMailer records outbound emails and hands the plaintext codes and tokens
// back to the tests.
type mockMailer struct {
	mu sync.Mutex

	VerificationMails  []sentMail
	ResetMails         []sentMail
	ChangedNoticeMails []sentMail
	FailVerification   bool
	FailReset          bool
	FailChangedNotice  bool
}

var errMailerFailure = errors.New("smtp unavailable")

func (m *mockMailer) SendVerificationCode(to string, fullName string, code string, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailVerification {
		return errMailerFailure
	}
	m.VerificationMails = append(m.VerificationMails, sentMail{To: to, FullName: fullName, Code: code, ExpiresAt: expiresAt})
	return nil
}

func (m *mockMailer) SendPasswordResetLink(to string, fullName string, token string, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReset {
		return errMailerFailure
	}
	m.ResetMails = append(m.ResetMails, sentMail{To: to, FullName: fullName, Token: token, ExpiresAt: expiresAt})
	return nil
}

func (m *mockMailer) SendPasswordChangedNotice(to string, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailChangedNotice {
		return errMailerFailure
	}
	m.ChangedNoticeMails = append(m.ChangedNoticeMails, sentMail{To: to, FullName: fullName})
	return nil
}

func (m *mockMailer) lastVerificationCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.VerificationMails) == 0 {
		return ""
	}
	return m.VerificationMails[len(m.VerificationMails)-1].Code
}

func (m *mockMailer) lastResetToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ResetMails) == 0 {
		return ""
	}
	return m.ResetMails[len(m.ResetMails)-1].Token
}

type testEnv struct {
	service *Service
	store   *memStore
	mailer  *mockMailer

	clock       time.Time
	sleepCalled []time.Duration
}

func (env *testEnv) advanceClock(d time.Duration) {
	env.clock = env.clock.Add(d)
}

func newTestEnv(t interface{ Fatalf(string, ...interface{}) }) *testEnv {
	hasher, err := pwhash.New(pwhash.Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		Pepper:      "test-pepper-value",
	})
	if err != nil {
		t.Fatalf("failed to init hasher: %v", err)
	}

	tokens, err := jwthandling.NewTokenIssuer(
		"test-access-sign-key",
		"test-refresh-sign-key",
		15*time.Minute,
		30*24*time.Hour,
	)
	if err != nil {
		t.Fatalf("failed to init token issuer: %v", err)
	}

	store := newMemStore()
	mailer := &mockMailer{}

	service, err := NewService(store, hasher, tokens, mailer)
	if err != nil {
		t.Fatalf("failed to init service: %v", err)
	}

	env := &testEnv{
		service: service,
		store:   store,
		mailer:  mailer,
		clock:   time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
	service.now = func() time.Time { return env.clock }
	service.sleep = func(d time.Duration) { env.sleepCalled = append(env.sleepCalled, d) }
	tokens.SetClock(func() time.Time { return env.clock })
	return env
}

func (env *testEnv) registerVerifiedUser(t interface{ Fatalf(string, ...interface{}) }, email string, username string, password string) userTypes.User {
	_, err := env.service.Register(RegisterInput{
		FullName: "Test User",
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	user, err := env.service.VerifyEmail(email, env.mailer.lastVerificationCode())
	if err != nil {
		t.Fatalf("failed to verify user: %v", err)
	}
	return user
}
