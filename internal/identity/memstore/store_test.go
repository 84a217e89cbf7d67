// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/identity/memstore"
	"github.com/idkit/identityd/pkg/errutil"
)

func register(t *testing.T, s *memstore.Store, username, password string) (*identity.User, *identity.UserProfile) {
	t.Helper()
	user := identity.NewUser(username, password)
	profile := identity.NewProfile(time.Now())
	require.NoError(t, s.Register(context.Background(), user, profile))
	return user, profile
}

func TestStore_RegisterAssignsIDs(t *testing.T) {
	s := memstore.New()

	alice, aliceProfile := register(t, s, "alice", "p1")
	bob, bobProfile := register(t, s, "bob", "p2")

	assert.Equal(t, int64(1), alice.ID)
	assert.Equal(t, int64(1), aliceProfile.ID)
	assert.Equal(t, alice.ID, aliceProfile.UserID)
	assert.Equal(t, int64(2), bob.ID)
	assert.Equal(t, int64(2), bobProfile.ID)
	assert.Equal(t, bob.ID, bobProfile.UserID)
}

func TestStore_FindByUsername(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	register(t, s, "dup", "a")
	register(t, s, "other", "x")
	register(t, s, "dup", "b")

	users, err := s.FindByUsername(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, int64(3), users[1].ID)

	users, err = s.FindByUsername(ctx, "DUP")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	user, _ := register(t, s, "alice", "p1")

	user.Password = "mutated"
	stored, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", stored.Password)

	stored.Username = "mutated"
	found, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	_, err := s.GetUser(ctx, 1)
	errutil.AssertErrorCode(t, err, identity.CodeUserNotFound)
	assert.ErrorIs(t, err, identity.ErrNotFound)

	_, err = s.GetProfile(ctx, 1)
	errutil.AssertErrorCode(t, err, identity.CodeProfileNotFound)
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestStore_RegisterRejectsNil(t *testing.T) {
	s := memstore.New()

	err := s.Register(context.Background(), nil, identity.NewProfile(time.Now()))
	errutil.AssertErrorCode(t, err, identity.CodeRegistrationFailed)

	err = s.Register(context.Background(), identity.NewUser("a", "b"), nil)
	errutil.AssertErrorCode(t, err, identity.CodeRegistrationFailed)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := memstore.New()

	_, err := s.FindByUsername(ctx, "alice")
	errutil.AssertErrorCode(t, err, identity.CodeStorageUnavailable)

	err = s.Register(ctx, identity.NewUser("a", "b"), identity.NewProfile(time.Now()))
	errutil.AssertErrorCode(t, err, identity.CodeStorageUnavailable)

	errutil.AssertErrorCode(t, s.Ping(ctx), identity.CodeStorageUnavailable)
	require.NoError(t, s.Ping(context.Background()))

	users, err := s.FindByUsername(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, users, "cancelled registration must not write")
}

func TestStore_ConcurrentRegister(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	s := memstore.New()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := identity.NewUser("crowd", "pw")
			profile := identity.NewProfile(time.Now())
			if err := s.Register(ctx, user, profile); err != nil {
				t.Errorf("register: %v", err)
				return
			}
			if profile.UserID != user.ID {
				t.Errorf("profile %d linked to user %d, want %d", profile.ID, profile.UserID, user.ID)
			}
		}()
	}
	wg.Wait()

	users, err := s.FindByUsername(ctx, "crowd")
	require.NoError(t, err)
	require.Len(t, users, 50)
	for _, u := range users {
		p, err := s.GetProfile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, p.UserID)
	}
}
