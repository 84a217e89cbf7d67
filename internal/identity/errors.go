// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Error codes attached to oops errors returned by this package and its stores.
const (
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeSessionNotFound      = "SESSION_NOT_FOUND"
	CodeProfileNotFound      = "PROFILE_NOT_FOUND"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInvalidCredentials   = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidHash          = "AUTH_INVALID_HASH"
	CodeRegistrationFailed   = "REGISTRATION_FAILED"
	CodeRegistrationConflict = "REGISTRATION_CONFLICT"
)
