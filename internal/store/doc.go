// Package store provides persistent storage for cask using SQLite.
//
// # Architecture
//
// The store exposes a single UserStore interface covering the two entities
// the authentication layer needs:
//
//   - User: account record with bcrypt password hash and role
//   - Session: opaque browser session bound to a user
//
// SQLiteStore implements UserStore. Verifiers only ever read; writes happen
// through the admin API and the bootstrap command.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Sessions cascade-delete with their user.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrUsernameExists: Username uniqueness violation on create
//
// All methods accept context.Context for cancellation support.
package store
