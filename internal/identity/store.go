// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import "context"

// CredentialStore persists users and their profiles.
//
// Storage failures are returned with the STORAGE_UNAVAILABLE code. Lookups
// that find nothing wrap ErrNotFound.
type CredentialStore interface {
	// FindByUsername returns every user with exactly this username, ordered
	// by ascending ID. No match is an empty slice, not an error.
	FindByUsername(ctx context.Context, username string) ([]*User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id int64) (*User, error)

	// GetProfile retrieves the profile belonging to a user.
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)

	// Register stores user and profile as one unit of work. On success the
	// IDs are assigned and profile.UserID equals user.ID. On failure neither
	// record is stored.
	Register(ctx context.Context, user *User, profile *UserProfile) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
