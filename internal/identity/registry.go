// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// SessionRegistry maps opaque session tokens to the identity they were
// issued for. Sessions live until the process exits.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]User
	newToken func() string
}

// NewSessionRegistry creates an empty registry issuing random UUIDv4 tokens.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]User),
		newToken: uuid.NewString,
	}
}

// Issue stores a snapshot of identity under a fresh token and returns the
// token. Every call yields a token not currently held by the registry.
func (r *SessionRegistry) Issue(identity User) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := r.newToken()
	for {
		if _, taken := r.sessions[token]; !taken {
			break
		}
		token = r.newToken()
	}
	r.sessions[token] = identity
	return token
}

// Resolve returns a copy of the identity a token was issued for.
func (r *SessionRegistry) Resolve(token string) (*User, error) {
	r.mu.RLock()
	identity, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return nil, oops.Code(CodeSessionNotFound).Errorf("session not found")
	}
	return &identity, nil
}

// Len returns the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
