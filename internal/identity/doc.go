// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package identity registers users, verifies their credentials and tracks
// the sessions issued to them.
//
// # Domain Types
//
// User and UserProfile are created together by registration:
//   - NewUser - creates a User with the default permission and auth method
//   - NewProfile - creates the placeholder profile for a freshly created user
//
// # Services
//
//   - Authenticator - resolves a username/password pair to a stored User
//   - SessionRegistry - maps opaque tokens to authenticated identities
//   - Service - registration, login and profile lookup on top of both
//
// Persistence is behind CredentialStore. The postgres and memstore
// subpackages provide implementations.
package identity
