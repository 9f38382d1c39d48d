package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SG-STD/ofox-backend/internal/apperr"
	"github.com/SG-STD/ofox-backend/internal/config"
	"github.com/SG-STD/ofox-backend/internal/models"
	"github.com/SG-STD/ofox-backend/internal/security"
)

func newAuth(h *harness, maxSessions int) *AuthService {
	return NewAuthService(h.users, h.sessions, h.auditor, h.bg, config.SecurityConfig{
		JWTAccessSecret: "jwt-test-secret",
		JWTAccessTTL:    time.Hour,
		MaxSessions:     maxSessions,
	}, zerolog.Nop())
}

func seedAlice(t *testing.T, h *harness) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{ID: "u-alice", Handle: "alice", Email: "a@x.com", PasswordHash: string(hash)}
	h.users.put(u)
	return u
}

func TestLogin_ByHandleAndEmail(t *testing.T) {
	h := newHarness()
	alice := seedAlice(t, h)
	svc := newAuth(h, 0)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, res.UserID)
	assert.NotEmpty(t, res.SessionID)
	assert.NotEmpty(t, res.AccessToken)

	res, err = svc.Login(ctx, LoginInput{Identifier: "A@X.com", Password: "secret1", DeviceName: "Pixel", DeviceType: "ANDROID"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Handle)

	h.bg.Wait()
	assert.Equal(t, 2, h.sessions.count())

	stored, err := h.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLogin_WrongPasswordCreatesNoSession(t *testing.T) {
	h := newHarness()
	seedAlice(t, h)
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "wrongpass"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.BadPassword)

	h.bg.Wait()
	assert.Zero(t, h.sessions.count())
}

func TestLogin_UnknownUser(t *testing.T) {
	h := newHarness()
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "bob", Password: "secret1"})
	assert.Equal(t, apperr.UserNotFound, apperr.KindOf(err))
	h.bg.Wait()
	assert.ElementsMatch(t, []string{"login_attempt", "login_failed"}, authActions(h))
}

func TestLogin_WrongPasswordIsAudited(t *testing.T) {
	h := newHarness()
	seedAlice(t, h)
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "wrongpass"})
	require.Error(t, err)
	h.bg.Wait()
	assert.ElementsMatch(t, []string{"login_attempt", "login_failed"}, authActions(h))
}

func authActions(h *harness) []string {
	h.audit.mu.Lock()
	defer h.audit.mu.Unlock()
	out := make([]string, 0, len(h.audit.auth))
	for _, e := range h.audit.auth {
		out = append(out, e.Action)
	}
	return out
}

func TestLogin_BannedUser(t *testing.T) {
	h := newHarness()
	alice := seedAlice(t, h)
	alice.IsBanned = true
	h.users.put(alice)
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "secret1"})
	assert.Equal(t, apperr.Banned, apperr.KindOf(err))
	h.bg.Wait()
	assert.Zero(t, h.sessions.count())
}

func TestLogin_PlaintextFallback(t *testing.T) {
	h := newHarness()
	h.users.put(models.User{ID: "u-legacy", Handle: "legacy", Email: "l@x.com", PasswordHash: "hunter2"})
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "legacy", Password: "hunter2"})
	require.NoError(t, err)
	h.bg.Wait()
}

func TestLogin_SessionCap(t *testing.T) {
	h := newHarness()
	seedAlice(t, h)
	svc := newAuth(h, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret1"})
		require.NoError(t, err)
	}
	h.bg.Wait()
	assert.Equal(t, 2, h.sessions.count())
}

func TestLogin_RequiresCredentials(t *testing.T) {
	h := newHarness()
	svc := newAuth(h, 0)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: " ", Password: "x"})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
}

func TestAuthenticate_RoundTripAndRevoke(t *testing.T) {
	h := newHarness()
	alice := seedAlice(t, h)
	svc := newAuth(h, 0)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret1"})
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.User.ID)
	assert.Equal(t, res.SessionID, p.Session.ID)

	sessions, err := svc.ListSessions(ctx, p.User)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, svc.Logout(ctx, p))
	_, err = svc.Authenticate(ctx, res.AccessToken)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	err = svc.RevokeSession(ctx, p.User, res.SessionID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	h.bg.Wait()
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	h := newHarness()
	svc := newAuth(h, 0)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestLogin_AuditEntriesAreObscured(t *testing.T) {
	h := newHarness()
	seedAlice(t, h)
	ctx := context.Background()
	require.NoError(t, h.boot.Ready(ctx))
	svc := newAuth(h, 0)

	_, err := svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret1"})
	require.NoError(t, err)
	h.bg.Wait()

	require.NotEmpty(t, h.audit.auth)
	o := security.NewObscurer("test-secret")
	for _, entry := range h.audit.auth {
		assert.NotEqual(t, "alice", entry.Identifier)
		assert.Equal(t, "alice", o.Reveal(entry.Identifier))
		assert.Regexp(t, `^\d+$`, o.Reveal(entry.Timestamp))
	}
}
