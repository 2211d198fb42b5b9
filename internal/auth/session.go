// ABOUTME: Session verifier for interactive browser and API clients
// ABOUTME: Accepts the session cookie or an Authorization bearer token

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/caskhq/cask/internal/store"
)

// SessionCookieName is the name of the browser session cookie.
const SessionCookieName = "cask_session"

// SessionVerifier turns a session credential into a user Identity.
// Two credential forms are accepted: the opaque session cookie, resolved
// against the session store, and an HS256 bearer token whose subject is a
// user ID. Both end in a user record lookup; neither form issues anything.
type SessionVerifier struct {
	users    UserLookup
	sessions SessionLookup
	tokens   *TokenVerifier
}

// NewSessionVerifier creates a session verifier. The token verifier may be
// nil, in which case bearer tokens are not accepted.
func NewSessionVerifier(users UserLookup, sessions SessionLookup, tokens *TokenVerifier) *SessionVerifier {
	return &SessionVerifier{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

// Verify resolves the request's session credential to a user Identity.
// Returns ErrUnauthenticated when no credential is present or it does not
// resolve to a live user record.
func (v *SessionVerifier) Verify(r *http.Request) (*Identity, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return v.verifyCookie(r, cookie.Value)
	}

	if header := r.Header.Get("Authorization"); header != "" {
		return v.verifyBearer(r, header)
	}

	return nil, fmt.Errorf("%w: no session credential", ErrUnauthenticated)
}

func (v *SessionVerifier) verifyCookie(r *http.Request, sessionID string) (*Identity, error) {
	session, err := v.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown or expired session", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	user, err := v.users.GetUser(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: session user no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("looking up session user: %w", err)
	}

	return UserIdentity(user, SchemeSession), nil
}

func (v *SessionVerifier) verifyBearer(r *http.Request, header string) (*Identity, error) {
	if v.tokens == nil {
		return nil, fmt.Errorf("%w: bearer tokens not enabled", ErrUnauthenticated)
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}

	userID, err := v.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := v.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: token user no longer exists", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("looking up token user: %w", err)
	}

	return UserIdentity(user, SchemeSession), nil
}
