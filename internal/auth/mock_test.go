// ABOUTME: Hand-rolled store mocks shared by the auth package tests
// ABOUTME: Keyed by user ID and username, with optional forced errors

package auth

import (
	"context"
	"errors"

	"github.com/caskhq/cask/internal/store"
)

type mockUserStore struct {
	users map[string]*store.User // keyed by ID
	err   error
}

func (m *mockUserStore) GetUser(_ context.Context, id string) (*store.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, store.ErrNotFound
}

type mockSessionStore struct {
	sessions map[string]*store.Session
	err      error
}

func (m *mockSessionStore) GetSession(_ context.Context, id string) (*store.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return session, nil
}

var errStoreDown = errors.New("store down")
