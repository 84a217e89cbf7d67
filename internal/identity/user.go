// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import "time"

// Registration defaults. The registration endpoint accepts only a username
// and password, so everything else starts from these values.
const (
	DefaultPermission  = 0
	AuthMethodPassword = "password"
	DefaultGender      = "unspecified"
)

// User is a stored account. Password holds whatever the configured
// PasswordVerifier prepared at registration (plaintext by default).
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"-"`
	Permission int    `json:"permission"`
	AuthMethod string `json:"auth_method"`
}

// NewUser creates an unsaved User with registration defaults.
func NewUser(username, password string) *User {
	return &User{
		Username:   username,
		Password:   password,
		Permission: DefaultPermission,
		AuthMethod: AuthMethodPassword,
	}
}

// UserProfile holds the per-user details returned by profile lookup.
// There is exactly one profile per user.
type UserProfile struct {
	ID       int64     `json:"id"`
	Gender   string    `json:"gender"`
	Birthday time.Time `json:"birthday"`
	UserID   int64     `json:"user_id"`
}

// NewProfile creates the placeholder profile written alongside a new user.
// UserID is filled in by the store once the user row exists.
func NewProfile(now time.Time) *UserProfile {
	return &UserProfile{
		Gender:   DefaultGender,
		Birthday: now,
	}
}
