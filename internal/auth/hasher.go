// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Supported password hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes

	// argon2MaxMemory bounds the memory parameter accepted from a stored hash.
	argon2MaxMemory = 4 * argon2Memory
)

// PasswordHasher provides password hashing and verification.
// Implementations hold only immutable parameters and are safe for
// concurrent use.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)
}

// NewPasswordHasher returns the hasher for algorithm. cost is the bcrypt
// work factor or the argon2id iteration count; zero selects the default.
func NewPasswordHasher(algorithm string, cost int) (PasswordHasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		if cost == 0 {
			cost = DefaultBcryptCost
		}
		return NewBcryptHasher(cost)
	case AlgorithmArgon2id:
		if cost < 0 {
			return nil, oops.Code(CodeHashFailed).With("cost", cost).Wrapf(ErrHashing, "invalid argon2id time cost")
		}
		if cost == 0 {
			cost = argon2Time
		}
		return &Argon2idHasher{time: uint32(cost)}, nil
	default:
		return nil, oops.Code(CodeHashFailed).With("algorithm", algorithm).Wrapf(ErrHashing, "unsupported algorithm")
	}
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	time uint32
}

// NewArgon2idHasher creates an Argon2idHasher with the default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{time: argon2Time}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", emptyPassword()
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code(CodeHashFailed).With("step", "salt").Wrap(ErrHashing)
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		h.time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if the password matches the hash. The parameters encoded in
// the hash are used, not the hasher's own.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, malformedHash("invalid hash format")
	}

	if parts[1] != AlgorithmArgon2id {
		return false, malformedHash("unsupported hash algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, malformedHash("invalid version segment")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, malformedHash("invalid parameter segment")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, malformedHash("invalid salt encoding")
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, malformedHash("invalid hash encoding")
	}

	if threads == 0 || threads > 255 {
		return false, malformedHash("threads out of range")
	}
	if time == 0 {
		return false, malformedHash("time out of range")
	}
	if memory == 0 || memory > argon2MaxMemory {
		return false, malformedHash("memory out of range")
	}

	keyLen := len(expectedHash)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, malformedHash("invalid hash key length")
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

func malformedHash(reason string) error {
	return oops.Code(CodeInvalidHash).With("reason", reason).Wrap(ErrMalformedHash)
}
