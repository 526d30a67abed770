package session_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"tasksync/internal/session"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestToken_ReturnsCredential(t *testing.T) {
	s := session.New(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}, nil)

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.True(t, s.Valid())
}

func TestToken_NoCredential(t *testing.T) {
	s := session.New(nil, nil)

	_, err := s.Token()
	assert.ErrorIs(t, err, session.ErrNoCredential)
}

func TestInvalidate_FiresCallbackOnce(t *testing.T) {
	calls := 0
	s := session.New(&oauth2.Token{AccessToken: "abc"}, func() { calls++ })

	s.Invalidate()
	s.Invalidate()

	assert.Equal(t, 1, calls)
	_, err := s.Token()
	assert.ErrorIs(t, err, session.ErrNoCredential)
}

func TestToken_ExpiredInvalidates(t *testing.T) {
	calls := 0
	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := session.New(&oauth2.Token{AccessToken: "abc", Expiry: exp}, func() { calls++ })
	s.SetClock(func() time.Time { return exp.Add(time.Second) })

	_, err := s.Token()
	assert.ErrorIs(t, err, session.ErrExpired)
	assert.Equal(t, 1, calls)
}

func TestParseCredential_JWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, exp)

	tok, err := session.ParseCredential("Bearer " + raw)
	require.NoError(t, err)
	assert.Equal(t, raw, tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(exp))
}

func TestParseCredential_Opaque(t *testing.T) {
	tok, err := session.ParseCredential("  opaque-token \n")
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok.AccessToken)
	assert.True(t, tok.Expiry.IsZero())
}

func TestParseCredential_Errors(t *testing.T) {
	_, err := session.ParseCredential("   ")
	assert.ErrorIs(t, err, session.ErrNoCredential)

	_, err = session.ParseCredential("a.b.c")
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	_, err := session.Load(path)
	assert.ErrorIs(t, err, session.ErrNoCredential)

	require.NoError(t, session.Save(path, &oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}))

	tok, err := session.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
}
