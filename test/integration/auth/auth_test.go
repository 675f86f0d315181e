// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package auth_test

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/postgres"
	"github.com/holomush/authcore/internal/store"
)

var _ = Describe("Migrations", func() {
	It("leaves nothing pending after Up", func() {
		migrator, err := store.NewMigrator(env.connStr)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())

		all, err := store.Versions()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(all[len(all)-1]))

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())
	})

	It("rejects a blank role at the database", func() {
		_, err := env.pool.Exec(env.ctx,
			`INSERT INTO users (id, name, email, password_hash, role, created_at) VALUES ($1, 'n', 'blank@x.com', 'h', '', now())`,
			ulid.Make().String())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("UserRepository", func() {
	var repo *postgres.UserRepository

	BeforeEach(func() {
		cleanupUsers(env.ctx, env.pool)
		repo = postgres.NewUserRepository(env.pool)
	})

	newUser := func(email string) *auth.User {
		return &auth.User{
			ID:           ulid.Make(),
			Name:         "Ana",
			Email:        email,
			PasswordHash: "$2a$04$placeholder",
			Role:         auth.RoleUser,
			CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	It("round-trips a user by id and by email", func() {
		u := newUser("ana@x.com")
		Expect(repo.Create(env.ctx, u)).To(Succeed())

		byID, err := repo.GetByID(env.ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal(u.Email))
		Expect(byID.CreatedAt.Equal(u.CreatedAt)).To(BeTrue())

		byEmail, err := repo.GetByEmail(env.ctx, u.Email)
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(u.ID))
		Expect(byEmail.PasswordHash).To(Equal(u.PasswordHash))
	})

	It("reports unknown users as not found", func() {
		_, err := repo.GetByEmail(env.ctx, "nobody@x.com")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())

		_, err = repo.GetByID(env.ctx, ulid.Make())
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	It("enforces email uniqueness with the constraint", func() {
		Expect(repo.Create(env.ctx, newUser("dup@x.com"))).To(Succeed())

		err := repo.Create(env.ctx, newUser("dup@x.com"))
		Expect(errors.Is(err, auth.ErrEmailTaken)).To(BeTrue())
	})
})

var _ = Describe("Auth service on PostgreSQL", func() {
	var svc *auth.Service

	BeforeEach(func() {
		cleanupUsers(env.ctx, env.pool)
		hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		svc, err = auth.NewAuthService(postgres.NewUserRepository(env.pool), hasher,
			auth.WithLogger(slog.New(slog.DiscardHandler)))
		Expect(err).NotTo(HaveOccurred())
	})

	It("registers, authenticates and issues a verifiable token", func() {
		created, err := svc.CreateUser(env.ctx, auth.Registration{Name: "Ana", Email: "ana@x.com", Password: "Secr3t!"})
		Expect(err).NotTo(HaveOccurred())

		authed, err := svc.AuthenticateUser(env.ctx, auth.Credentials{Email: "ana@x.com", Password: "Secr3t!"})
		Expect(err).NotTo(HaveOccurred())
		Expect(authed.ID).To(Equal(created.ID))

		tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("integration-secret")}, slog.New(slog.DiscardHandler))
		token, err := tokens.IssueDefault(auth.SessionClaims(authed))
		Expect(err).NotTo(HaveOccurred())

		verified, err := tokens.Verify(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(verified.Claims.String("sub")).To(Equal(created.ID.String()))
	})

	It("admits exactly one of many concurrent registrations for an email", func() {
		const workers = 8
		var (
			wg         sync.WaitGroup
			created    atomic.Int32
			duplicates atomic.Int32
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := svc.CreateUser(env.ctx, auth.Registration{Name: "Ana", Email: "race@x.com", Password: "Secr3t!"})
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, auth.ErrDuplicateUser):
					duplicates.Add(1)
				}
			}()
		}
		wg.Wait()

		Expect(created.Load()).To(Equal(int32(1)))
		Expect(duplicates.Load()).To(Equal(int32(workers - 1)))
	})

	It("returns the same error for unknown email and wrong password", func() {
		_, err := svc.CreateUser(env.ctx, auth.Registration{Name: "Ana", Email: "ana@x.com", Password: "Secr3t!"})
		Expect(err).NotTo(HaveOccurred())

		_, unknown := svc.AuthenticateUser(env.ctx, auth.Credentials{Email: "who@x.com", Password: "nope"})
		_, wrong := svc.AuthenticateUser(env.ctx, auth.Credentials{Email: "ana@x.com", Password: "nope"})
		Expect(unknown).To(MatchError(auth.ErrInvalidCredentials))
		Expect(wrong).To(MatchError(auth.ErrInvalidCredentials))
		Expect(unknown.Error()).To(Equal(wrong.Error()))
	})
})
