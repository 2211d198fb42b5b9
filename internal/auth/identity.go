// ABOUTME: Identity type and error taxonomy for the authentication layer
// ABOUTME: One Identity per authenticated request, produced by exactly one verifier

package auth

import (
	"context"
	"errors"

	"github.com/caskhq/cask/internal/store"
)

// Scheme identifies which verifier produced an Identity.
// Retained for audit and log purposes, never for authorization decisions.
type Scheme string

const (
	SchemeSession      Scheme = "session"
	SchemeBasic        Scheme = "basic"
	SchemeSharedSecret Scheme = "shared-secret"
)

// Authentication errors
var (
	// ErrUnauthenticated means the credential for the attempted scheme is
	// missing or invalid.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotConfigured means the server lacks the secret configuration the
	// attempted scheme requires. Operator-facing, distinct from an invalid
	// credential.
	ErrNotConfigured = errors.New("cli access not configured")

	// ErrForbidden means the credential is valid but the role is insufficient.
	ErrForbidden = errors.New("forbidden")
)

// Identity is the canonical authenticated-principal record attached to a
// request. It is either a user identity (Subject and Role set from a user
// record) or a system-agent identity (SystemAgent true, no subject, no role).
// Identities are immutable after creation.
type Identity struct {
	Subject     string     // user ID; empty for system agents
	Username    string     // login name, for logs; empty for system agents
	Role        store.Role // empty for system agents
	Scheme      Scheme
	SystemAgent bool
}

// UserIdentity builds an Identity from a user record.
func UserIdentity(user *store.User, scheme Scheme) *Identity {
	return &Identity{
		Subject:  user.ID,
		Username: user.Username,
		Role:     user.Role,
		Scheme:   scheme,
	}
}

// SystemAgentIdentity builds the fixed identity for shared-secret automation
// access. It carries no subject and satisfies no role gate.
func SystemAgentIdentity() *Identity {
	return &Identity{
		Scheme:      SchemeSharedSecret,
		SystemAgent: true,
	}
}

// HasRole reports whether the identity's role is in the given set.
// Membership is exact, no hierarchy: admin does not imply user.
// System agents have no role and never match.
func (id *Identity) HasRole(roles ...store.Role) bool {
	if id.SystemAgent {
		return false
	}
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// UserLookup is the read-only slice of the store the verifiers need.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
}

// SessionLookup resolves opaque session IDs from the session cookie.
type SessionLookup interface {
	GetSession(ctx context.Context, id string) (*store.Session, error)
}
