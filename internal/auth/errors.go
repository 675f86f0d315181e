// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// Error codes attached to auth errors.
const (
	CodeHashFailed         = "AUTH_HASH_FAILED"
	CodeInvalidHash        = "AUTH_INVALID_HASH"
	CodeEmptyPassword      = "AUTH_EMPTY_PASSWORD"
	CodeDuplicateUser      = "AUTH_DUPLICATE_USER"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidInput       = "AUTH_INVALID_INPUT"
	CodeTokenSignFailed    = "TOKEN_SIGN_FAILED"
	CodeTokenInvalid       = "TOKEN_INVALID"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by repositories when the storage layer rejects
// an insert because the email is already in use.
var ErrEmailTaken = errors.New("email already taken")

// Sentinels identifying each error kind. Returned errors wrap one of these,
// so callers classify with errors.Is or KindOf.
var (
	ErrHashing            = errors.New("password hashing failed")
	ErrMalformedHash      = errors.New("malformed password hash")
	ErrDuplicateUser      = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("validation failed")
	ErrSigning            = errors.New("failed to sign token")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmptyPassword      = errors.New("password cannot be empty")
)

// Kind classifies an error for translation at the transport boundary.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindHashing
	KindVerification
	KindDuplicateUser
	KindAuthentication
	KindSigning
	KindInvalidToken
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindInvalidInput:   "invalid_input",
	KindHashing:        "hashing",
	KindVerification:   "verification",
	KindDuplicateUser:  "duplicate_user",
	KindAuthentication: "authentication",
	KindSigning:        "signing",
	KindInvalidToken:   "invalid_token",
	KindNotFound:       "not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindOf returns the kind of err. Errors outside the auth taxonomy,
// including nil, report KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyPassword):
		return KindInvalidInput
	case errors.Is(err, ErrDuplicateUser):
		return KindDuplicateUser
	case errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, ErrInvalidToken):
		return KindInvalidToken
	case errors.Is(err, ErrSigning):
		return KindSigning
	case errors.Is(err, ErrHashing):
		return KindHashing
	case errors.Is(err, ErrMalformedHash):
		return KindVerification
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}

// ValidationError builds an invalid input error whose message joins the
// issues with ", ".
func ValidationError(issues ...string) error {
	return oops.Code(CodeInvalidInput).
		With("issues", issues).
		Wrapf(ErrInvalidInput, "%s", FormatIssues(issues))
}

// ValidationIssues returns the issues recorded by ValidationError anywhere in
// err's chain, or nil.
func ValidationIssues(err error) []string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	issues, _ := oopsErr.Context()["issues"].([]string)
	return issues
}

// FormatIssues joins validation issues into one message.
func FormatIssues(issues []string) string {
	kept := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue = strings.TrimSpace(issue); issue != "" {
			kept = append(kept, issue)
		}
	}
	if len(kept) == 0 {
		return "unknown validation error"
	}
	return strings.Join(kept, ", ")
}

// invalidCredentials is built fresh for every failed login so that the
// unknown email and wrong password paths return identical errors.
func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

func duplicateUser() error {
	return oops.Code(CodeDuplicateUser).Wrap(ErrDuplicateUser)
}

func emptyPassword() error {
	return oops.Code(CodeEmptyPassword).Wrap(ErrEmptyPassword)
}

func invalidToken() error {
	return oops.Code(CodeTokenInvalid).Wrap(ErrInvalidToken)
}
