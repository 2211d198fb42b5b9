// Package auth is the identity and access-control boundary for cask.
//
// # Trust Domains
//
// Three independent credential schemes are reconciled into one Identity:
//
//   - Session: interactive browser clients carry the cask_session cookie
//     (opaque ID resolved in the session store) or an HS256 bearer token.
//   - Basic: WebDAV clients authenticate per request with username/password
//     verified against stored bcrypt hashes.
//   - Shared secret: the companion CLI sends a static secret in X-CLI-Token
//     and is resolved to a system-agent identity with no subject and no role.
//
// # Request Flow
//
// Cross-origin requests first pass the OriginPolicy via CORSMiddleware.
// Exactly one resolving middleware (RequireSession, RequireBasic, or
// RequireCLIToken) runs per route class; on success it attaches the Identity
// to the request context, on failure it halts with HTTP 403 and a JSON
// message body. Downstream handlers and RequireRole read the Identity with
// FromContext (optional) or MustFromContext (mandatory, panics if a route
// was wired without a resolver). Downstream code never re-parses raw
// credentials.
//
// # Status Codes
//
// Every failure in this package is surfaced as 403, never 401 or 500.
// Collapsing "who are you" and "you may not" into one status hides endpoint
// existence from unauthenticated scanners.
package auth
