// ABOUTME: HTTP Basic verifier for file-protocol (WebDAV) routes
// ABOUTME: Verifies username/password against stored bcrypt hashes per request

package auth

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/caskhq/cask/internal/store"
)

// BasicVerifier authenticates username/password pairs from the standard
// Basic authorization header. Used only on file-protocol routes; it never
// creates a session.
type BasicVerifier struct {
	users UserLookup
}

// NewBasicVerifier creates a Basic verifier backed by the given user lookup.
func NewBasicVerifier(users UserLookup) *BasicVerifier {
	return &BasicVerifier{users: users}
}

// Verify resolves the request's Basic credentials to a user Identity.
// Missing header, unknown user, and password mismatch all collapse into
// ErrUnauthenticated so callers cannot probe for valid usernames.
func (v *BasicVerifier) Verify(r *http.Request) (*Identity, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, fmt.Errorf("%w: missing basic credentials", ErrUnauthenticated)
	}

	user, err := v.users.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	}

	return UserIdentity(user, SchemeBasic), nil
}
