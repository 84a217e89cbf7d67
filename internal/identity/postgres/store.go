// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package postgres implements identity.CredentialStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/idkit/identityd/internal/identity"
)

// Compile-time interface check.
var _ identity.CredentialStore = (*Store)(nil)

// poolIface is the subset of *pgxpool.Pool used by Store.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store implements identity.CredentialStore using PostgreSQL.
type Store struct {
	pool poolIface
}

// NewStore creates a new Store.
func NewStore(pool poolIface) *Store {
	return &Store{pool: pool}
}

// FindByUsername returns users with an exact (case-sensitive) username match.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]*identity.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, password, permission, auth_method
		FROM users
		WHERE username = $1
		ORDER BY id
	`, username)
	if err != nil {
		return nil, unavailable("find users by username", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		var u identity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Permission, &u.AuthMethod); err != nil {
			return nil, unavailable("scan user row", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}
	return users, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*identity.User, error) {
	var u identity.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password, permission, auth_method
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Password, &u.Permission, &u.AuthMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(identity.CodeUserNotFound).
			With("id", id).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code(identity.CodeStorageUnavailable).
			With("operation", "get user").
			With("id", id).
			Wrap(err)
	}
	return &u, nil
}

// GetProfile retrieves the profile belonging to userID.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*identity.UserProfile, error) {
	var p identity.UserProfile
	err := s.pool.QueryRow(ctx, `
		SELECT id, gender, birthday, user_id
		FROM user_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.Gender, &p.Birthday, &p.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(identity.CodeProfileNotFound).
			With("user_id", userID).
			Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code(identity.CodeStorageUnavailable).
			With("operation", "get profile").
			With("user_id", userID).
			Wrap(err)
	}
	return &p, nil
}

// Register inserts the user and its profile in a single transaction.
func (s *Store) Register(ctx context.Context, user *identity.User, profile *identity.UserProfile) error {
	if user == nil || profile == nil {
		return oops.Code(identity.CodeRegistrationFailed).Errorf("user and profile are required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin registration", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var userID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, password, permission, auth_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, user.Username, user.Password, user.Permission, user.AuthMethod).Scan(&userID)
	if err != nil {
		return writeFailed("insert user", user.Username, err)
	}

	var profileID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO user_profiles (gender, birthday, user_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, profile.Gender, profile.Birthday, userID).Scan(&profileID)
	if err != nil {
		return writeFailed("insert profile", user.Username, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit registration", err)
	}

	user.ID = userID
	profile.ID = profileID
	profile.UserID = userID
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func unavailable(operation string, err error) error {
	return oops.Code(identity.CodeStorageUnavailable).With("operation", operation).Wrap(err)
}

// writeFailed classifies an insert failure. Constraint violations are
// conflicts; anything else means the store could not be used.
func writeFailed(operation, username string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation, pgerrcode.NotNullViolation:
			return oops.Code(identity.CodeRegistrationConflict).
				With("operation", operation).
				With("username", username).
				With("constraint", pgErr.ConstraintName).
				Wrap(err)
		}
	}
	return oops.Code(identity.CodeStorageUnavailable).
		With("operation", operation).
		With("username", username).
		Wrap(err)
}
