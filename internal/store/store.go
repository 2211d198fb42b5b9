// ABOUTME: Store interface and data types for cask persistence
// ABOUTME: Defines User, Session structs and the UserStore interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// Role represents an access level assigned to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRoles lists all valid role names
var ValidRoles = []Role{
	RoleAdmin,
	RoleUser,
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an account that can authenticate against the server,
// either with a browser session or with HTTP Basic on WebDAV routes.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	DisplayName  string
	Role         Role
	CreatedAt    time.Time
}

// Session represents an authenticated browser session.
// The ID is the opaque value carried by the session cookie.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UserStore defines the interface for user and session persistence.
type UserStore interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*User, error)
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error
}
