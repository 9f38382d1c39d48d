package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SG-STD/ofox-backend/internal/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestEmailKey(t *testing.T) {
	assert.Equal(t, "a@x,com", EmailKey("a@x.com"))
	assert.Equal(t, "first,last@mail,example,org", EmailKey("  First.Last@Mail.Example.org "))
}

func TestUserRepository_EmailExists(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateLastLogin_Missing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec("UPDATE users SET last_login_at").
		WithArgs("u1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateLastLogin(context.Background(), "u1", time.Now())
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateFromPending(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	user := models.User{ID: "u1", Handle: "alice", Email: "a@x.com", PasswordHash: "$2a$10$x", EmailVerified: true}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pending_users WHERE email_key = $1")).
		WithArgs("a@x,com").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateFromPending(context.Background(), user, "a@x,com"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateFromPending_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateFromPending(context.Background(), models.User{ID: "u1"}, "a@x,com")
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingRepository_GetMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewPendingRepository(mock)

	mock.ExpectQuery("FROM pending_users").
		WithArgs("a@x,com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "a@x,com")
	assert.ErrorIs(t, err, ErrPendingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingRepository_DeleteExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewPendingRepository(mock)

	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pending_users WHERE expires_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigRepository_Get(t *testing.T) {
	mock := newMock(t)
	repo := NewConfigRepository(mock)

	mock.ExpectQuery("SELECT value FROM app_config").
		WithArgs(PathEncryptionKey).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("k3y"))
	mock.ExpectQuery("SELECT value FROM app_config").
		WithArgs(PathPrivacyPolicy).
		WillReturnError(pgx.ErrNoRows)

	v, err := repo.Get(context.Background(), PathEncryptionKey)
	require.NoError(t, err)
	assert.Equal(t, "k3y", v)

	_, err = repo.Get(context.Background(), PathPrivacyPolicy)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("s1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("s2", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.DeleteByID(context.Background(), "u1", "s1"))
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), "u1", "s2"), ErrSessionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_CreateIfAbsent(t *testing.T) {
	mock := newMock(t)
	repo := NewChatRepository(mock)

	chat := models.Chat{ID: "u1-u2", Participants: []string{"u1", "u2"}, CreatedAt: time.Now()}
	mock.ExpectExec("INSERT INTO chats").
		WithArgs(chat.ID, chat.Participants, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO chats").
		WithArgs(chat.ID, chat.Participants, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateIfAbsent(context.Background(), chat)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), chat)
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateProfile_RenamesHandle(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	handle := "alice2"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT handle FROM users").
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"handle"}).AddRow("alice"))
	mock.ExpectExec("UPDATE users").
		WithArgs("u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE sessions SET handle").
		WithArgs("u1", "alice2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateProfile(context.Background(), "u1", &handle, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
