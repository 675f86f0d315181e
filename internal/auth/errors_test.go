// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want auth.Kind
	}{
		{"nil", nil, auth.KindUnknown},
		{"plain error", errors.New("boom"), auth.KindUnknown},
		{"empty password", auth.ErrEmptyPassword, auth.KindInvalidInput},
		{"validation", auth.ValidationError("email is required"), auth.KindInvalidInput},
		{"wrapped duplicate", oops.With("operation", "x").Wrap(auth.ErrDuplicateUser), auth.KindDuplicateUser},
		{"credentials", auth.ErrInvalidCredentials, auth.KindAuthentication},
		{"token", auth.ErrInvalidToken, auth.KindInvalidToken},
		{"signing", auth.ErrSigning, auth.KindSigning},
		{"hashing", auth.ErrHashing, auth.KindHashing},
		{"malformed hash", auth.ErrMalformedHash, auth.KindVerification},
		{"not found", auth.ErrNotFound, auth.KindNotFound},
		{"coded duplicate", oops.Code(auth.CodeDuplicateUser).Wrap(auth.ErrDuplicateUser), auth.KindDuplicateUser},
		{"coded credentials", oops.Code(auth.CodeInvalidCredentials).Wrap(auth.ErrInvalidCredentials), auth.KindAuthentication},
		{"coded token", oops.Code(auth.CodeTokenInvalid).Wrap(auth.ErrInvalidToken), auth.KindInvalidToken},
		{"coded signing", oops.Code(auth.CodeTokenSignFailed).Wrap(auth.ErrSigning), auth.KindSigning},
		{"coded hashing", oops.Code(auth.CodeHashFailed).Wrap(auth.ErrHashing), auth.KindHashing},
		{"coded malformed hash", oops.Code(auth.CodeInvalidHash).Wrap(auth.ErrMalformedHash), auth.KindVerification},
		{"coded empty password", oops.Code(auth.CodeEmptyPassword).Wrap(auth.ErrEmptyPassword), auth.KindInvalidInput},
		{"bare oops error", oops.Errorf("boom"), auth.KindUnknown},
		{"coded store error", oops.Code("DB_QUERY_FAILED").Wrap(errors.New("connection refused")), auth.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.KindOf(tt.err))
		})
	}
}

func TestSentinels_DoNotMatchUnrelatedOopsErrors(t *testing.T) {
	unrelated := oops.Code("SOMETHING_ELSE").Errorf("boom")
	for _, sentinel := range []error{
		auth.ErrEmptyPassword,
		auth.ErrInvalidInput,
		auth.ErrDuplicateUser,
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
		auth.ErrSigning,
		auth.ErrHashing,
		auth.ErrMalformedHash,
		auth.ErrNotFound,
		auth.ErrEmailTaken,
	} {
		assert.NotErrorIs(t, unrelated, sentinel)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "duplicate_user", auth.KindDuplicateUser.String())
	assert.Equal(t, "unknown", auth.Kind(99).String())
}

func TestValidationError(t *testing.T) {
	err := auth.ValidationError("email is required", "password is required")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
	assert.Contains(t, err.Error(), "email is required, password is required")
	errutil.AssertErrorCode(t, err, auth.CodeInvalidInput)
}

func TestValidationIssues(t *testing.T) {
	err := oops.With("operation", "create user").Wrap(auth.ValidationError("email is required", "password is required"))
	assert.Equal(t, []string{"email is required", "password is required"}, auth.ValidationIssues(err))
	assert.Nil(t, auth.ValidationIssues(auth.ErrEmptyPassword))
	assert.Nil(t, auth.ValidationIssues(errors.New("boom")))
}

func TestFormatIssues(t *testing.T) {
	assert.Equal(t, "a, b", auth.FormatIssues([]string{"a", " ", "b"}))
	assert.Equal(t, "unknown validation error", auth.FormatIssues(nil))
	assert.Equal(t, "unknown validation error", auth.FormatIssues([]string{"", "  "}))
}
