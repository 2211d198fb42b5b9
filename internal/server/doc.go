// Package server assembles the cask HTTP surface.
//
// Route classes and their gates:
//
//   - /healthz, /metrics: open
//   - /api/status: optional session; anonymous callers get public state only
//   - /api/me, /api/admin/*: session verifier; admin routes add RequireRole
//   - /api/cli/*: shared-secret verifier, system-agent identity
//   - /dav/*: Basic verifier in front of golang.org/x/net/webdav
//
// CORS wraps the whole mux so preflights are answered before route
// dispatch; the origin allow-list comes from configuration. The server owns no global state: store and config are
// injected at construction and the verifiers are built from them.
package server
