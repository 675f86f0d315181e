// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// maxBcryptPassword is the longest input bcrypt accepts.
const maxBcryptPassword = 72

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the given work factor.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if err := checkBcryptCost(cost); err != nil {
		return nil, err
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash hashes password with the configured cost.
func (h *BcryptHasher) Hash(password string) (string, error) {
	return h.HashWithCost(password, h.cost)
}

// HashWithCost hashes password with an explicit cost.
func (h *BcryptHasher) HashWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", emptyPassword()
	}
	if err := checkBcryptCost(cost); err != nil {
		return "", err
	}
	if len(password) > maxBcryptPassword {
		return "", oops.Code(CodeHashFailed).
			With("max_bytes", maxBcryptPassword).
			Wrapf(ErrHashing, "password too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		// bcrypt errors never include the input.
		return "", oops.Code(CodeHashFailed).With("cause", err.Error()).Wrap(ErrHashing)
	}
	return string(hash), nil
}

// Verify checks password against a bcrypt hash in constant time.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code(CodeInvalidHash).With("reason", err.Error()).Wrap(ErrMalformedHash)
	}
}

func checkBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return oops.Code(CodeHashFailed).
			With("cost", cost).
			With("min", bcrypt.MinCost).
			With("max", bcrypt.MaxCost).
			Wrapf(ErrHashing, "invalid cost")
	}
	return nil
}
