// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Authenticator verifies username/password pairs against a CredentialStore.
type Authenticator struct {
	store    CredentialStore
	verifier PasswordVerifier
	logger   *slog.Logger
}

// NewAuthenticator creates an Authenticator. A nil logger uses slog.Default.
func NewAuthenticator(store CredentialStore, verifier PasswordVerifier, logger *slog.Logger) (*Authenticator, error) {
	if store == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("password verifier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{store: store, verifier: verifier, logger: logger}, nil
}

// Authenticate returns the first user (lowest ID) whose username equals
// username and whose stored password matches password.
//
// No match is reported as found == false with a nil error. Errors are
// storage failures only.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*User, bool, error) {
	candidates, err := a.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, false, oops.Code(CodeStorageUnavailable).
			With("operation", "find users by username").
			With("username", username).
			Wrap(err)
	}

	for _, user := range candidates {
		ok, err := a.verifier.Verify(password, user.Password)
		if err != nil {
			// A stored value the verifier cannot read never matches.
			a.logger.WarnContext(ctx, "skipping unreadable stored password",
				"user_id", user.ID,
				"error", err)
			continue
		}
		if ok {
			found := *user
			return &found, true, nil
		}
	}
	return nil, false, nil
}
