package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/groceryguru/internal/database"
)

func setupService(t *testing.T, hook OnRegister) (*Service, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, time.Hour, hook), db
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	ok, err := CheckPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestTokens(t *testing.T) {
	tokens, err := NewTokens(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)

	tok, expires, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	id, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	other, _ := NewTokens(strings.Repeat("o", 32), time.Hour)
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "token signed with another secret")

	later := time.Now().Add(2 * time.Hour)
	tokens.now = func() time.Time { return later }
	_, err = tokens.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired token")

	_, err = tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensShortSecret(t *testing.T) {
	_, err := NewTokens("short", time.Hour)
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	var seeded int64
	svc, _ := setupService(t, func(ctx context.Context, tx *sql.Tx, personID int64) error {
		seeded = personID
		return nil
	})
	ctx := context.Background()

	p, err := svc.Register(ctx, " Alice@Example.com ", "Alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, p.ID, seeded)

	_, err = svc.Register(ctx, "alice@example.com", "Alice again", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, "not-an-email", "", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	person, sess, err := svc.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, p.ID, person.ID)

	got, err := svc.Session(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.PersonID)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	got, err = svc.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegisterHookFailureRollsBack(t *testing.T) {
	svc, db := setupService(t, func(ctx context.Context, tx *sql.Tx, personID int64) error {
		return errors.New("seed failed")
	})

	_, err := svc.Register(context.Background(), "bob@example.com", "Bob", "password123")
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM persons`).Scan(&n))
	assert.Equal(t, 0, n)
}
