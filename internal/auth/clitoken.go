// ABOUTME: Shared-secret verifier for the companion CLI
// ABOUTME: Single implementation; constant-time comparison against X-CLI-Token

package auth

import (
	"crypto/subtle"
	"fmt"
)

// CLITokenHeader is the header automation clients send the shared secret in.
const CLITokenHeader = "X-CLI-Token"

// CLIVerifier authenticates automation clients against a static shared
// secret. On success it yields the system-agent identity: no subject, no
// role. Routes behind this verifier must not also require a user role.
type CLIVerifier struct {
	secret string
}

// NewCLIVerifier creates a shared-secret verifier. An empty secret means the
// feature is not configured; every verification then fails with
// ErrNotConfigured rather than ErrUnauthenticated.
func NewCLIVerifier(secret string) *CLIVerifier {
	return &CLIVerifier{secret: secret}
}

// Verify compares the caller-supplied token against the configured secret.
// The comparison is exact (no normalization) and constant-time.
func (v *CLIVerifier) Verify(token string) (*Identity, error) {
	if v.secret == "" {
		return nil, ErrNotConfigured
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(v.secret)) != 1 {
		return nil, fmt.Errorf("%w: invalid cli token", ErrUnauthenticated)
	}

	return SystemAgentIdentity(), nil
}
