// ABOUTME: API handlers for identity introspection, user administration, and CLI routes
// ABOUTME: Handlers read the resolved Identity from context, never raw credentials

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/caskhq/cask/internal/auth"
	"github.com/caskhq/cask/internal/store"
)

// userResponse is the JSON shape for user records. Password hashes never
// leave the server.
type userResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// handleStatus reports public server state. Anonymous access is legal here;
// when a session credential resolves, the response names the caller.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":        "ok",
		"webdav":        s.config.WebDAV.Enabled,
		"authenticated": false,
	}
	if identity := auth.FromContext(r.Context()); identity != nil {
		body["authenticated"] = true
		body["username"] = identity.Username
	}
	writeJSON(w, http.StatusOK, body)
}

// handleMe returns the caller's resolved identity.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"subject":  identity.Subject,
		"username": identity.Username,
		"role":     string(identity.Role),
		"scheme":   string(identity.Scheme),
	})
}

// handleListUsers returns all users. Admin only.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("listing users", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// handleCreateUser creates a user account. Admin only.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	role := store.Role(req.Role)
	if req.Role == "" {
		role = store.RoleUser
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		s.logger.Error("creating user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// handleDeleteUser removes a user. Admin only. Admins cannot delete
// themselves, which keeps at least the acting account alive.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if identity.Subject == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("deleting user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// handleResetPassword replaces a user's password. Admin only.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hashing password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.store.UpdateUserPassword(r.Context(), id, string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("updating password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCLIPing answers the companion CLI's connectivity check. The caller
// is the system agent; responses never attribute activity to a user.
func (s *Server) handleCLIPing(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"system_agent": identity.SystemAgent,
	})
}

// handleCLIUsers lists user accounts for the companion CLI.
func (s *Server) handleCLIUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("listing users for cli", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}
