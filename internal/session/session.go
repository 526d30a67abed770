// Package session holds the bearer credential for the current user.
//
// A Session is created explicitly and handed to the gateway client; nothing
// reads the credential from ambient global state. When the gateway rejects the
// credential, the client calls Invalidate, which drops the credential and fires
// the callback supplied at construction (typically removing token.json).
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	// ErrNoCredential is returned when there is no credential or it was invalidated.
	ErrNoCredential = errors.New("not logged in")

	// ErrExpired is returned when the credential is past its expiry.
	ErrExpired = errors.New("session expired")
)

// Session is an oauth2.TokenSource over a single bearer credential.
type Session struct {
	mu           sync.Mutex
	token        *oauth2.Token
	onInvalidate func()
	now          func() time.Time
}

// New creates a session for token. onInvalidate may be nil.
func New(token *oauth2.Token, onInvalidate func()) *Session {
	return &Session{
		token:        token,
		onInvalidate: onInvalidate,
		now:          time.Now,
	}
}

// SetClock replaces the time source (for testing).
func (s *Session) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Token implements oauth2.TokenSource.
// An expired credential invalidates the session.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	tok := s.token
	now := s.now()
	s.mu.Unlock()

	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNoCredential
	}
	if !tok.Expiry.IsZero() && !now.Before(tok.Expiry) {
		s.Invalidate()
		return nil, ErrExpired
	}
	return tok, nil
}

// Valid reports whether the session currently holds a usable credential.
func (s *Session) Valid() bool {
	_, err := s.Token()
	return err == nil
}

// Invalidate drops the credential. The callback fires only on the first call.
func (s *Session) Invalidate() {
	s.mu.Lock()
	had := s.token != nil
	s.token = nil
	cb := s.onInvalidate
	s.mu.Unlock()

	if had && cb != nil {
		cb()
	}
}

// ParseCredential turns a raw bearer credential into a token.
// JWT credentials get their expiry from the exp claim; the signature is not
// checked here, the gateway does that. Opaque credentials never expire locally.
func ParseCredential(raw string) (*oauth2.Token, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "Bearer ")
	if raw == "" {
		return nil, ErrNoCredential
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if strings.Count(raw, ".") != 2 {
		return tok, nil
	}

	exp, err := Expiry(raw)
	if err != nil {
		return nil, err
	}
	tok.Expiry = exp
	return tok, nil
}

// Expiry reads the exp claim of a JWT without verifying it.
// Returns the zero time when the claim is absent.
func Expiry(raw string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("invalid credential: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Load reads a stored token.
func Load(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &tok, nil
}

// Save writes a token with mode 0600.
func Save(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
