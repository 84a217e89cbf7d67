// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/pkg/errutil"
)

func TestNewPasswordVerifier(t *testing.T) {
	tests := []struct {
		scheme string
		want   any
	}{
		{"", identity.PlaintextVerifier{}},
		{identity.SchemePlaintext, identity.PlaintextVerifier{}},
		{identity.SchemeArgon2id, &identity.Argon2idVerifier{}},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			v, err := identity.NewPasswordVerifier(tt.scheme)
			require.NoError(t, err)
			assert.IsType(t, tt.want, v)
		})
	}

	_, err := identity.NewPasswordVerifier("md5")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	errutil.AssertErrorContext(t, err, "scheme", "md5")
}

func TestPlaintextVerifier(t *testing.T) {
	v := identity.PlaintextVerifier{}

	stored, err := v.Prepare("p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", stored)

	tests := []struct {
		name     string
		password string
		stored   string
		want     bool
	}{
		{"exact match", "p1", "p1", true},
		{"empty matches empty", "", "", true},
		{"case sensitive", "P1", "p1", false},
		{"no trimming", "p1 ", "p1", false},
		{"prefix", "p", "p1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Verify(tt.password, tt.stored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestArgon2idVerifier_RoundTrip(t *testing.T) {
	v := identity.NewArgon2idVerifier()

	stored, err := v.Prepare("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "$argon2id$v=19$m=65536,t=1,p=4$"), stored)

	ok, err := v.Verify("correct horse", stored)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Verify("Correct horse", stored)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2idVerifier_SaltsDiffer(t *testing.T) {
	v := identity.NewArgon2idVerifier()

	a, err := v.Prepare("pw")
	require.NoError(t, err)
	b, err := v.Prepare("pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2idVerifier_EmptyPassword(t *testing.T) {
	v := identity.NewArgon2idVerifier()

	stored, err := v.Prepare("")
	require.NoError(t, err)

	ok, err := v.Verify("", stored)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2idVerifier_RejectsMalformedStoredValues(t *testing.T) {
	v := identity.NewArgon2idVerifier()

	tests := []struct {
		name   string
		stored string
	}{
		{"plaintext", "p1"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{"bad version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=4$c2FsdA$a2V5"},
		{"zero threads", "$argon2id$v=19$m=65536,t=1,p=0$c2FsdA$a2V5"},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=4$c2FsdA$a2V5"},
		{"memory above limit", "$argon2id$v=19$m=4194304,t=1,p=4$c2FsdA$a2V5"},
		{"zero time", "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$a2V5"},
		{"time above limit", "$argon2id$v=19$m=65536,t=4294967295,p=4$c2FsdA$a2V5"},
		{"bad salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5"},
		{"empty key", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.Verify("p1", tt.stored)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, identity.CodeInvalidHash)
		})
	}
}
