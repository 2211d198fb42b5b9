// ABOUTME: Cross-origin trust policy for credentialed browser requests
// ABOUTME: Pure decision function plus the CORS middleware that applies it

package auth

import (
	"net/http"
)

// OriginPolicy decides whether a cross-origin request may receive
// credentialed responses. Built once from configuration; deterministic and
// side-effect free.
type OriginPolicy struct {
	allowed map[string]struct{}
}

// NewOriginPolicy creates a policy from an exact-match allow-list.
func NewOriginPolicy(allowedOrigins []string) *OriginPolicy {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "" {
			continue
		}
		allowed[origin] = struct{}{}
	}
	return &OriginPolicy{allowed: allowed}
}

// Allows reports whether the given Origin header value is permitted.
// An empty origin (same-origin or non-browser client) is always allowed.
func (p *OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CORSMiddleware applies the origin policy to browser requests. Allowed
// origins are echoed back specifically (never a wildcard) because
// credentials are permitted; rejected origins get no CORS headers at all
// and their preflights are refused.
func CORSMiddleware(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if policy.Allows(origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,"+CLITokenHeader)
					w.Header().Set("Access-Control-Max-Age", "600")

					if r.Method == http.MethodOptions {
						w.WriteHeader(http.StatusNoContent)
						return
					}
				} else if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
