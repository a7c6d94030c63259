package model

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/financeflow/backend/src/database"
)

func newUserDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.CreateSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateUserAndPasswordCheck(t *testing.T) {
	db := newUserDB(t)

	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("s3cret-password"))
	require.NoError(t, user.CreateUser(db))
	assert.NotZero(t, user.ID)
	assert.Equal(t, "local", user.AuthProvider)

	loaded, err := GetUserByUsername(db, "alice")
	require.NoError(t, err)
	assert.NoError(t, loaded.CheckPassword("s3cret-password"))
	assert.Error(t, loaded.CheckPassword("wrong"))

	byEmail, err := GetUserByEmail(db, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, loaded.ID, byEmail.ID)

	_, err = GetUserByUsername(db, "nobody")
	assert.EqualError(t, err, "user not found")
}

func TestEmailVerificationTokenFlow(t *testing.T) {
	db := newUserDB(t)

	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("pw"))
	require.NoError(t, user.CreateUser(db))

	require.NoError(t, SetVerificationToken(db, user.ID, "tok-123", time.Now().Add(time.Hour)))
	require.NoError(t, VerifyEmailByToken(db, "tok-123"))

	verified, err := GetUserByID(db, user.ID)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified)

	// A consumed or unknown token no longer verifies anyone.
	assert.Error(t, VerifyEmailByToken(db, "tok-123"))
}

func TestExpiredVerificationTokenRejected(t *testing.T) {
	db := newUserDB(t)

	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("pw"))
	require.NoError(t, user.CreateUser(db))

	require.NoError(t, SetVerificationToken(db, user.ID, "tok-expired", time.Now().Add(-time.Minute)))
	assert.Error(t, VerifyEmailByToken(db, "tok-expired"))
}

func TestSessionLifecycle(t *testing.T) {
	db := newUserDB(t)

	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("pw"))
	require.NoError(t, user.CreateUser(db))

	session := &Session{
		UserID:       user.ID,
		Token:        "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, CreateSession(db, session))

	got, err := GetSessionByToken(db, "access-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)

	byRefresh, err := GetSessionByRefreshToken(db, "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, got.ID, byRefresh.ID)

	require.NoError(t, DeleteSessionByToken(db, "access-token"))
	_, err = GetSessionByToken(db, "access-token")
	assert.Error(t, err)

	// Deleting again stays idempotent.
	assert.NoError(t, DeleteSessionByToken(db, "access-token"))
}

func TestExpiredSessionNotReturned(t *testing.T) {
	db := newUserDB(t)

	user := &User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, user.HashPassword("pw"))
	require.NoError(t, user.CreateUser(db))

	session := &Session{
		UserID:       user.ID,
		Token:        "stale",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, CreateSession(db, session))

	_, err := GetSessionByToken(db, "stale")
	assert.Error(t, err)
}
