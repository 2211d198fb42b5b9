// ABOUTME: Tests for the origin policy and CORS middleware
// ABOUTME: Allowed origins are echoed with credentials; others get nothing

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy_Allows(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://a.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true}, // same-origin or non-browser client
		{"https://a.example", true},
		{"https://evil.example", false},
		{"http://a.example", false}, // scheme is part of the origin
	}

	for _, tt := range tests {
		if got := policy.Allows(tt.origin); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginPolicy_EmptyList(t *testing.T) {
	policy := NewOriginPolicy(nil)

	if !policy.Allows("") {
		t.Error("empty origin must always be allowed")
	}
	if policy.Allows("https://a.example") {
		t.Error("no cross-origin access with an empty allow-list")
	}
}

func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://a.example"})
	handler := CORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Origin", "https://a.example")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example" {
		t.Errorf("expected specific origin echo, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials allowed, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("expected Vary: Origin, got %q", got)
	}
}

func TestCORSMiddleware_RejectedOrigin(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://a.example"})
	handler := CORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS headers for rejected origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("expected no credentials header for rejected origin, got %q", got)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://a.example"})
	var handlerCalled bool
	handler := CORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	// Allowed preflight short-circuits with 204
	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://a.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for allowed preflight, got %d", rec.Code)
	}
	if handlerCalled {
		t.Error("preflight must not reach the handler")
	}

	// Rejected preflight gets 403
	req = httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for rejected preflight, got %d", rec.Code)
	}
}
