// ABOUTME: Tests for the session verifier
// ABOUTME: Covers cookie resolution, bearer tokens, and missing credentials

package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/caskhq/cask/internal/store"
)

var sessionTestSecret = []byte("session-verify-test-secret-32-b!")

func sessionTestFixtures() (*mockUserStore, *mockSessionStore) {
	users := &mockUserStore{
		users: map[string]*store.User{
			"user-1": {ID: "user-1", Username: "alice", Role: store.RoleAdmin},
		},
	}
	sessions := &mockSessionStore{
		sessions: map[string]*store.Session{
			"sess-1": {ID: "sess-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	return users, sessions
}

func TestSessionVerifier_Cookie(t *testing.T) {
	users, sessions := sessionTestFixtures()
	v := NewSessionVerifier(users, sessions, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})

	identity, err := v.Verify(req)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Subject != "user-1" {
		t.Errorf("expected subject 'user-1', got %q", identity.Subject)
	}
	if identity.Scheme != SchemeSession {
		t.Errorf("expected scheme session, got %q", identity.Scheme)
	}
}

func TestSessionVerifier_UnknownCookie(t *testing.T) {
	users, sessions := sessionTestFixtures()
	v := NewSessionVerifier(users, sessions, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-unknown"})

	_, err := v.Verify(req)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionVerifier_CookieUserDeleted(t *testing.T) {
	users, sessions := sessionTestFixtures()
	sessions.sessions["sess-orphan"] = &store.Session{
		ID: "sess-orphan", UserID: "user-gone", ExpiresAt: time.Now().Add(time.Hour),
	}
	v := NewSessionVerifier(users, sessions, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-orphan"})

	_, err := v.Verify(req)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionVerifier_Bearer(t *testing.T) {
	users, sessions := sessionTestFixtures()
	tokens, err := NewTokenVerifier(sessionTestSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}
	v := NewSessionVerifier(users, sessions, tokens)

	token, _ := tokens.Generate("user-1", time.Hour)
	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	identity, err := v.Verify(req)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Subject != "user-1" || identity.Scheme != SchemeSession {
		t.Errorf("unexpected identity: %+v", identity)
	}
}

func TestSessionVerifier_BearerBadSignature(t *testing.T) {
	users, sessions := sessionTestFixtures()
	tokens, _ := NewTokenVerifier(sessionTestSecret)
	v := NewSessionVerifier(users, sessions, tokens)

	other, _ := NewTokenVerifier([]byte("some-other-32-byte-signing-key!!"))
	token, _ := other.Generate("user-1", time.Hour)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	_, err := v.Verify(req)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionVerifier_NoCredential(t *testing.T) {
	users, sessions := sessionTestFixtures()
	v := NewSessionVerifier(users, sessions, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)

	_, err := v.Verify(req)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionVerifier_StoreError(t *testing.T) {
	users, sessions := sessionTestFixtures()
	sessions.err = errStoreDown
	v := NewSessionVerifier(users, sessions, nil)

	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})

	_, err := v.Verify(req)
	if err == nil {
		t.Fatal("expected error")
	}
	// Infrastructure failures are not credential failures
	if errors.Is(err, ErrUnauthenticated) {
		t.Errorf("store errors must not map to ErrUnauthenticated, got %v", err)
	}
}
