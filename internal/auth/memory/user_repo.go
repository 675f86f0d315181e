// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides in-process implementations of auth repositories
// for development and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
)

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository keeps users in maps guarded by a mutex. Email uniqueness
// is enforced inside the critical section, so concurrent Create calls for
// the same email admit exactly one.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a copy of user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create user").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return oops.Code("USER_EMAIL_TAKEN").With("email", user.Email).Wrap(auth.ErrEmailTaken)
	}
	if _, exists := r.byID[user.ID]; exists {
		return oops.Code("USER_CREATE_FAILED").With("user_id", user.ID.String()).Errorf("duplicate user id")
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID returns a copy of the user with id.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("user_id", id.String()).Wrap(auth.ErrNotFound)
	}
	found := *u
	return &found, nil
}

// GetByEmail returns a copy of the user whose email equals email exactly.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	found := *r.byID[id]
	return &found, nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Ping always succeeds.
func (r *UserRepository) Ping(context.Context) error {
	return nil
}
