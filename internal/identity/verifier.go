// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Supported password schemes.
const (
	SchemePlaintext = "plaintext"
	SchemeArgon2id  = "argon2id"
)

// PasswordVerifier converts submitted passwords into their stored form and
// checks submitted passwords against it.
type PasswordVerifier interface {
	// Prepare returns the value to store for password.
	Prepare(password string) (string, error)

	// Verify reports whether password matches stored.
	// Returns (false, nil) on mismatch and an error only for a malformed stored value.
	Verify(password, stored string) (bool, error)
}

// NewPasswordVerifier returns the verifier for a configured scheme.
// An empty scheme selects plaintext.
func NewPasswordVerifier(scheme string) (PasswordVerifier, error) {
	switch scheme {
	case "", SchemePlaintext:
		return PlaintextVerifier{}, nil
	case SchemeArgon2id:
		return NewArgon2idVerifier(), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("scheme", scheme).
			Errorf("unknown password scheme %q", scheme)
	}
}

// PlaintextVerifier stores passwords as given and compares them literally.
// Comparison is case-sensitive with no normalization.
type PlaintextVerifier struct{}

// Prepare returns password unchanged.
func (PlaintextVerifier) Prepare(password string) (string, error) {
	return password, nil
}

// Verify reports literal equality in constant time.
func (PlaintextVerifier) Verify(password, stored string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}

// argon2id parameters for newly prepared passwords.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Upper bounds accepted from stored hashes.
const (
	argon2MaxMemory = 256 * 1024 // KiB, 256 MiB
	argon2MaxTime   = 16
)

// Argon2idVerifier stores PHC-encoded argon2id hashes.
type Argon2idVerifier struct{}

// NewArgon2idVerifier creates a new Argon2idVerifier.
func NewArgon2idVerifier() *Argon2idVerifier {
	return &Argon2idVerifier{}
}

// Prepare hashes password with a random salt.
// Output format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (v *Argon2idVerifier) Prepare(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters recorded in stored.
func (v *Argon2idVerifier) Verify(password, stored string) (bool, error) {
	p, err := decodeArgon2id(stored)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func decodeArgon2id(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, oops.Code(CodeInvalidHash).Errorf("stored password is not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code(CodeInvalidHash).With("version", version).Errorf("unsupported argon2 version")
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code(CodeInvalidHash).Errorf("threads value %d out of range", threads)
	}
	if memory == 0 || memory > argon2MaxMemory {
		return nil, oops.Code(CodeInvalidHash).Errorf("memory value %d out of range", memory)
	}
	if iterations == 0 || iterations > argon2MaxTime {
		return nil, oops.Code(CodeInvalidHash).Errorf("time value %d out of range", iterations)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Code(CodeInvalidHash).Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code(CodeInvalidHash).Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2Params{
		memory:  memory,
		time:    iterations,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
