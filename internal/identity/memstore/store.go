// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package memstore provides a process-local identity.CredentialStore.
//
// Records live in insertion order with per-table auto-increment IDs. The
// store is safe for concurrent use and loses everything on exit.
package memstore

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/idkit/identityd/internal/identity"
)

// Compile-time interface check.
var _ identity.CredentialStore = (*Store)(nil)

// Store implements identity.CredentialStore in memory.
type Store struct {
	mu            sync.RWMutex
	users         []identity.User
	profiles      []identity.UserProfile
	nextUserID    int64
	nextProfileID int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// FindByUsername returns copies of all users named username in ID order.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("find users by username", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*identity.User
	for i := range s.users {
		if s.users[i].Username == username {
			u := s.users[i]
			out = append(out, &u)
		}
	}
	return out, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get user", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, oops.Code(identity.CodeUserNotFound).With("id", id).Wrap(identity.ErrNotFound)
}

// GetProfile retrieves the profile for userID.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*identity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get profile", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.profiles {
		if s.profiles[i].UserID == userID {
			p := s.profiles[i]
			return &p, nil
		}
	}
	return nil, oops.Code(identity.CodeProfileNotFound).With("user_id", userID).Wrap(identity.ErrNotFound)
}

// Register appends user and profile under one lock.
func (s *Store) Register(ctx context.Context, user *identity.User, profile *identity.UserProfile) error {
	if user == nil || profile == nil {
		return oops.Code(identity.CodeRegistrationFailed).Errorf("user and profile are required")
	}
	if err := ctx.Err(); err != nil {
		return unavailable("register", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	user.ID = s.nextUserID
	s.nextProfileID++
	profile.ID = s.nextProfileID
	profile.UserID = user.ID

	s.users = append(s.users, *user)
	s.profiles = append(s.profiles, *profile)
	return nil
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(operation string, err error) error {
	return oops.Code(identity.CodeStorageUnavailable).With("operation", operation).Wrap(err)
}
