// ABOUTME: HTTP server assembling cask routes behind the auth middlewares
// ABOUTME: Owns the listener lifecycle and graceful shutdown

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caskhq/cask/internal/auth"
	"github.com/caskhq/cask/internal/config"
	"github.com/caskhq/cask/internal/store"
)

// Server is the cask HTTP front end. All route classes hang off one mux:
// session-gated API routes, the admin surface, shared-secret CLI routes,
// and the Basic-gated WebDAV mount.
type Server struct {
	config     *config.Config
	store      store.UserStore
	logger     *slog.Logger
	httpServer *http.Server

	sessions *auth.SessionVerifier
	basic    *auth.BasicVerifier
	cli      *auth.CLIVerifier
	origins  *auth.OriginPolicy
}

// New creates a server wired to the given store. The store and verifiers are
// constructed by the caller and injected here; nothing in this package
// initializes process-wide state on first access.
func New(cfg *config.Config, st store.UserStore, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenVerifier([]byte(cfg.Auth.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("creating token verifier: %w", err)
	}

	s := &Server{
		config:   cfg,
		store:    st,
		logger:   logger.With("component", "server"),
		sessions: auth.NewSessionVerifier(st, st, tokens),
		basic:    auth.NewBasicVerifier(st),
		cli:      auth.NewCLIVerifier(cfg.Auth.CLISecret),
		origins:  auth.NewOriginPolicy(cfg.CORS.AllowedOrigins),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler builds the full route tree. Exposed separately from Run so tests
// can drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	requireSession := auth.RequireSession(s.sessions, s.logger)
	optionalSession := auth.OptionalSession(s.sessions, s.logger)
	requireAdmin := auth.RequireRole(s.logger, store.RoleAdmin)
	requireCLI := auth.RequireCLIToken(s.cli, s.logger)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.config.Metrics.Enabled {
		mux.Handle("GET "+s.config.Metrics.Path, promhttp.Handler())
	}

	// Session routes
	mux.Handle("GET /api/status", optionalSession(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/me", requireSession(http.HandlerFunc(s.handleMe)))

	// Admin routes: session identity plus admin role, in that order
	adminChain := func(h http.HandlerFunc) http.Handler {
		return requireSession(requireAdmin(h))
	}
	mux.Handle("GET /api/admin/users", adminChain(s.handleListUsers))
	mux.Handle("POST /api/admin/users", adminChain(s.handleCreateUser))
	mux.Handle("DELETE /api/admin/users/{id}", adminChain(s.handleDeleteUser))
	mux.Handle("POST /api/admin/users/{id}/password", adminChain(s.handleResetPassword))

	// CLI routes: shared secret only, never stacked with a role gate
	mux.Handle("GET /api/cli/ping", requireCLI(http.HandlerFunc(s.handleCLIPing)))
	mux.Handle("GET /api/cli/users", requireCLI(http.HandlerFunc(s.handleCLIUsers)))

	// WebDAV mount: Basic credentials verified per request
	if s.config.WebDAV.Enabled {
		mux.Handle(s.config.WebDAV.Prefix, auth.RequireBasic(s.basic, s.logger)(s.webdavHandler()))
	}

	// CORS wraps everything so preflights are answered before route dispatch.
	return auth.CORSMiddleware(s.origins)(mux)
}

// Run starts the server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	go s.sweepSessions(ctx)

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// Shutdown with a fresh context since the original is already canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// sweepSessions periodically deletes expired sessions so the table does not
// grow without bound. Expired rows are already invisible to lookups, so a
// missed sweep affects storage only.
func (s *Server) sweepSessions(ctx context.Context) {
	interval := s.config.Auth.SessionSweepInterval
	if interval <= 0 {
		interval = config.DefaultSessionSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.DeleteExpiredSessions(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
