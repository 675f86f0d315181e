// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// Service provides registration and login.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time

	// hashing is CPU bound; slots bounds how many run at once.
	slots *semaphore.Weighted

	// dummyHash is verified on the unknown email path. It never matches
	// user input.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHashConcurrency bounds concurrent hash and verify calls. Values below
// one select GOMAXPROCS.
func WithHashConcurrency(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		s.slots = semaphore.NewWeighted(int64(n))
	}
}

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuthService creates a new Service. It hashes a random value up front
// for the unknown email path and fails if the hasher cannot.
func NewAuthService(users UserRepository, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	s := &Service{
		users:  users,
		hasher: hasher,
		logger: slog.Default(),
		now:    time.Now,
		slots:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash(rand.Text())
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").
			With("operation", "build dummy hash").
			Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// CreateUser registers a new account. The email pre-check is advisory; the
// repository's uniqueness guarantee is what prevents duplicates under
// concurrent registration.
func (s *Service) CreateUser(ctx context.Context, reg Registration) (*PublicUser, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, reg.Email)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "registration rejected", "email", reg.Email, "reason", "email already registered")
		return nil, duplicateUser()
	case !errors.Is(err, ErrNotFound):
		return nil, oops.With("operation", "check existing user").Wrap(err)
	}

	hash, err := s.hash(ctx, reg.Password)
	if err != nil {
		return nil, oops.With("operation", "hash password").Wrap(err)
	}

	user := &User{
		ID:           ulid.Make(),
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		Role:         reg.Role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logger.InfoContext(ctx, "registration rejected", "email", reg.Email, "reason", "email taken on insert")
			return nil, duplicateUser()
		}
		return nil, oops.With("operation", "create user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user created", "email", user.Email, "user_id", user.ID.String())
	return user.Public(), nil
}

// AuthenticateUser verifies credentials. Unknown emails and wrong passwords
// produce the same error, and both paths run one password verification.
func (s *Service) AuthenticateUser(ctx context.Context, creds Credentials) (*PublicUser, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, oops.With("operation", "get user by email").Wrap(err)
		}
		// Result ignored; this keeps timing in line with the found path.
		_, _ = s.verify(ctx, creds.Password, s.dummyHash) //nolint:errcheck // timing only
		s.logger.InfoContext(ctx, "authentication failed", "reason", "unknown email")
		return nil, invalidCredentials()
	}

	ok, err := s.verify(ctx, creds.Password, user.PasswordHash)
	if err != nil {
		return nil, oops.With("operation", "verify password", "user_id", user.ID.String()).Wrap(err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "authentication failed", "reason", "password mismatch", "user_id", user.ID.String())
		return nil, invalidCredentials()
	}

	s.logger.InfoContext(ctx, "user authenticated", "email", user.Email, "user_id", user.ID.String())
	return user.Public(), nil
}

func (s *Service) hash(ctx context.Context, password string) (string, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return "", oops.With("operation", "acquire hash slot").Wrap(err)
	}
	defer s.slots.Release(1)
	return s.hasher.Hash(password) //nolint:wrapcheck // caller adds context
}

func (s *Service) verify(ctx context.Context, password, hash string) (bool, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return false, oops.With("operation", "acquire hash slot").Wrap(err)
	}
	defer s.slots.Release(1)
	return s.hasher.Verify(password, hash) //nolint:wrapcheck // caller adds context
}
