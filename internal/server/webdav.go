// ABOUTME: WebDAV mount serving the configured storage root
// ABOUTME: Sits behind RequireBasic; protocol semantics are x/net/webdav's

package server

import (
	"net/http"

	"golang.org/x/net/webdav"

	"github.com/caskhq/cask/internal/auth"
)

// webdavHandler builds the WebDAV handler over the storage root. The auth
// middleware in front of it has already resolved a user identity; failed
// operations are logged with that identity for audit.
func (s *Server) webdavHandler() http.Handler {
	logger := s.logger.With("component", "webdav")

	return &webdav.Handler{
		Prefix:     s.config.WebDAV.Prefix,
		FileSystem: webdav.Dir(s.config.Storage.Root),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err == nil {
				return
			}
			attrs := []any{"method", r.Method, "path", r.URL.Path, "error", err}
			if identity := auth.FromContext(r.Context()); identity != nil {
				attrs = append(attrs, "username", identity.Username)
			}
			logger.Debug("webdav error", attrs...)
		},
	}
}
