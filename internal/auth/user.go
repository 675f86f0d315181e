// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role is the authorization role of a user.
type Role string

// Known roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Field limits for registration input.
const (
	MaxNameLength  = 100
	MaxEmailLength = 254
)

// User is a stored account. PasswordHash never leaves the service layer;
// callers receive a PublicUser instead.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// PublicUser is the user record returned to callers.
type PublicUser struct {
	ID        ulid.ULID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips the password hash.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Registration is the input to CreateUser.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// Validate checks registration input and fills the default role.
func (r *Registration) Validate() error {
	var issues []string
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		issues = append(issues, "name is required")
	case len(name) > MaxNameLength:
		issues = append(issues, "name is too long")
	}
	switch {
	case r.Email == "":
		issues = append(issues, "email is required")
	case len(r.Email) > MaxEmailLength:
		issues = append(issues, "email is too long")
	case !looksLikeEmail(r.Email):
		issues = append(issues, "email is invalid")
	}
	if r.Password == "" {
		issues = append(issues, "password is required")
	}
	if r.Role == "" {
		r.Role = RoleUser
	} else if !r.Role.Valid() {
		issues = append(issues, "role is invalid")
	}
	if len(issues) > 0 {
		return ValidationError(issues...)
	}
	r.Name = name
	return nil
}

// looksLikeEmail is a shape check only; deliverability is not our concern.
func looksLikeEmail(s string) bool {
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}

// Credentials is the input to AuthenticateUser. It lives only for the call.
type Credentials struct {
	Email    string
	Password string
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create inserts a user. Returns ErrEmailTaken when the email is already stored.
	Create(ctx context.Context, user *User) error

	// GetByID returns ErrNotFound when no user matches.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail matches the email exactly as stored. Returns ErrNotFound when no user matches.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
