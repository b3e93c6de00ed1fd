package usermanagement

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
)

func TestLogin(t *testing.T) {
	t.Run("returns token pair on valid credentials", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)

		result, err := env.service.Login("ada@example.com", testPassword, "test-agent")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token.AccessToken)
		assert.NotEmpty(t, result.Token.RefreshToken)
		assert.Greater(t, result.Token.ExpiresIn, int64(0))
		assert.Empty(t, result.User.Account.Password)

		stored, err := env.store.GetUserByEmail("ada@example.com")
		require.NoError(t, err)
		require.Len(t, stored.RefreshSessions, 1)
		assert.Equal(t, "test-agent", stored.RefreshSessions[0].UserAgent)
		// the stored hash never equals the plaintext token
		assert.NotEqual(t, result.Token.RefreshToken, stored.RefreshSessions[0].TokenHash)
	})

	t.Run("accepts username as identifier", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)

		_, err := env.service.Login("ada", testPassword, "test-agent")
		assert.NoError(t, err)
	})

	t.Run("rejects unknown account, wrong password and unverified email", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		_, err := env.service.Register(RegisterInput{
			FullName: "Grace Hopper",
			Email:    "grace@example.com",
			Username: "grace",
			Password: testPassword,
		})
		require.NoError(t, err)

		_, err = env.service.Login("nobody@example.com", testPassword, "test-agent")
		assert.ErrorIs(t, err, ErrAccountNotFound)

		_, err = env.service.Login("ada@example.com", "not-the-password-1", "test-agent")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = env.service.Login("grace@example.com", testPassword, "test-agent")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("evicts the oldest session beyond the limit", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)

		tokens := []string{}
		for i := 0; i < userTypes.MAX_REFRESH_SESSIONS+2; i++ {
			result, err := env.service.Login("ada@example.com", testPassword, fmt.Sprintf("device-%d", i))
			require.NoError(t, err)
			tokens = append(tokens, result.Token.RefreshToken)
			env.advanceClock(time.Minute)
		}

		stored, err := env.store.GetUserByID(user.ID.Hex())
		require.NoError(t, err)
		require.Len(t, stored.RefreshSessions, userTypes.MAX_REFRESH_SESSIONS)
		assert.Equal(t, "device-2", stored.RefreshSessions[0].UserAgent)
		assert.Equal(t, "device-6", stored.RefreshSessions[userTypes.MAX_REFRESH_SESSIONS-1].UserAgent)

		// evicted token now triggers reuse detection
		_, err = env.service.Refresh(tokens[0])
		assert.ErrorIs(t, err, ErrSessionReuse)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("rotates the presented token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		login, err := env.service.Login("ada@example.com", testPassword, "test-agent")
		require.NoError(t, err)

		env.advanceClock(time.Hour)
		refreshed, err := env.service.Refresh(login.Token.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.Token.AccessToken)
		assert.NotEqual(t, login.Token.RefreshToken, refreshed.Token.RefreshToken)

		// still a single session, rotated in place
		stored, err := env.store.GetUserByID(user.ID.Hex())
		require.NoError(t, err)
		require.Len(t, stored.RefreshSessions, 1)
		assert.Equal(t, "test-agent", stored.RefreshSessions[0].UserAgent)

		// the new token works for the next rotation
		_, err = env.service.Refresh(refreshed.Token.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("wipes all sessions when a rotated-out token is replayed", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		first, err := env.service.Login("ada@example.com", testPassword, "device-a")
		require.NoError(t, err)
		_, err = env.service.Login("ada@example.com", testPassword, "device-b")
		require.NoError(t, err)

		_, err = env.service.Refresh(first.Token.RefreshToken)
		require.NoError(t, err)

		_, err = env.service.Refresh(first.Token.RefreshToken)
		assert.ErrorIs(t, err, ErrSessionReuse)

		stored, err := env.store.GetUserByID(user.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, stored.RefreshSessions)
	})

	t.Run("reports a conflict when a concurrent rotation wins", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		login, err := env.service.Login("ada@example.com", testPassword, "test-agent")
		require.NoError(t, err)

		// a competing request rotates the stored hash away right before
		// this rotation's conditional update runs
		env.store.rotateHook = func() {
			stored, err := env.store.GetUserByID(user.ID.Hex())
			require.NoError(t, err)
			require.Len(t, stored.RefreshSessions, 1)
			ok, err := env.store.RotateRefreshSession(
				user.ID.Hex(),
				stored.RefreshSessions[0].TokenHash,
				"competing-token-hash",
				env.clock.Unix()+1000,
				env.clock.Unix(),
			)
			require.NoError(t, err)
			require.True(t, ok)
		}

		_, err = env.service.Refresh(login.Token.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshConflict)
	})

	t.Run("rejects malformed or foreign-signed tokens", func(t *testing.T) {
		env := newTestEnv(t)
		env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)

		_, err := env.service.Refresh("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("reports no active sessions after revocation", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		login, err := env.service.Login("ada@example.com", testPassword, "test-agent")
		require.NoError(t, err)

		require.NoError(t, env.service.RevokeAllSessions(user.ID.Hex()))

		_, err = env.service.Refresh(login.Token.RefreshToken)
		assert.ErrorIs(t, err, ErrNoActiveSessions)
	})

	t.Run("removes the session when it is expired", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
		login, err := env.service.Login("ada@example.com", testPassword, "test-agent")
		require.NoError(t, err)

		// past the stored session expiry but within JWT validity is not
		// reachable with real TTLs, so age the stored entry directly
		stored, err := env.store.GetUserByID(user.ID.Hex())
		require.NoError(t, err)
		require.Len(t, stored.RefreshSessions, 1)
		_, err = env.store.RotateRefreshSession(
			user.ID.Hex(),
			stored.RefreshSessions[0].TokenHash,
			stored.RefreshSessions[0].TokenHash,
			env.clock.Unix()-1,
			env.clock.Unix(),
		)
		require.NoError(t, err)

		_, err = env.service.Refresh(login.Token.RefreshToken)
		assert.ErrorIs(t, err, ErrRefreshExpired)

		after, err := env.store.GetUserByID(user.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, after.RefreshSessions)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerVerifiedUser(t, "ada@example.com", "ada", testPassword)
	first, err := env.service.Login("ada@example.com", testPassword, "device-a")
	require.NoError(t, err)
	_, err = env.service.Login("ada@example.com", testPassword, "device-b")
	require.NoError(t, err)

	env.service.Logout(first.Token.RefreshToken)

	stored, err := env.store.GetUserByID(user.ID.Hex())
	require.NoError(t, err)
	require.Len(t, stored.RefreshSessions, 1)
	assert.Equal(t, "device-b", stored.RefreshSessions[0].UserAgent)

	// repeated and malformed logouts are silently ignored
	env.service.Logout(first.Token.RefreshToken)
	env.service.Logout("not-a-token")

	after, err := env.store.GetUserByID(user.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, after.RefreshSessions, 1)
}
