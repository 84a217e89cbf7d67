// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Service provides registration, login and profile lookup.
// A Service owns its SessionRegistry; create one per process.
type Service struct {
	store    CredentialStore
	verifier PasswordVerifier
	auth     *Authenticator
	sessions *SessionRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service and its authenticator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for profile defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionRegistry supplies the registry instead of creating a new one.
func WithSessionRegistry(sessions *SessionRegistry) Option {
	return func(s *Service) {
		if sessions != nil {
			s.sessions = sessions
		}
	}
}

// NewService creates a Service backed by store.
func NewService(store CredentialStore, verifier PasswordVerifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if verifier == nil {
		return nil, oops.Errorf("password verifier is required")
	}

	s := &Service{
		store:    store,
		verifier: verifier,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = NewSessionRegistry()
	}

	auth, err := NewAuthenticator(store, verifier, s.logger)
	if err != nil {
		return nil, err
	}
	s.auth = auth
	return s, nil
}

// Sessions returns the registry owned by the service.
func (s *Service) Sessions() *SessionRegistry {
	return s.sessions
}

// Register creates a user and its default profile in one unit of work.
// No username or password validation is applied.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	stored, err := s.verifier.Prepare(password)
	if err != nil {
		return nil, oops.Code(CodeRegistrationFailed).
			With("operation", "prepare password").
			With("username", username).
			Wrap(err)
	}

	user := NewUser(username, stored)
	profile := NewProfile(s.now().UTC())
	if err := s.store.Register(ctx, user, profile); err != nil {
		return nil, oops.Code(CodeRegistrationFailed).
			With("operation", "register user").
			With("username", username).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"profile_id", profile.ID)
	return user, nil
}

// Authenticate checks credentials without issuing a session.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, bool, error) {
	return s.auth.Authenticate(ctx, username, password)
}

// Login authenticates the pair and issues a session token for the match.
// A failed match returns AUTH_INVALID_CREDENTIALS and issues nothing.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, found, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", oops.With("operation", "login").Wrap(err)
	}
	if !found {
		return "", oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
	}

	token := s.sessions.Issue(*user)
	s.logger.InfoContext(ctx, "session issued", "user_id", user.ID)
	return token, nil
}

// ResolveSession returns the identity a token was issued for.
func (s *Service) ResolveSession(token string) (*User, error) {
	return s.sessions.Resolve(token)
}

// LookupProfile resolves token and returns the profile of its identity.
func (s *Service) LookupProfile(ctx context.Context, token string) (*UserProfile, error) {
	user, err := s.sessions.Resolve(token)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeProfileNotFound).
			With("user_id", user.ID).
			Wrap(err)
	}
	if err != nil {
		return nil, oops.Code(CodeStorageUnavailable).
			With("operation", "get profile").
			With("user_id", user.ID).
			Wrap(err)
	}
	return profile, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return oops.Code(CodeStorageUnavailable).With("operation", "ping").Wrap(err)
	}
	return nil
}
