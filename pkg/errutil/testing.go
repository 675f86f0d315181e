// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertIndistinguishable asserts that two errors expose the same message,
// code and context, so a caller cannot tell which path produced them.
func AssertIndistinguishable(t *testing.T, a, b error) {
	t.Helper()
	require.Error(t, a)
	require.Error(t, b)
	assert.Equal(t, a.Error(), b.Error(), "messages differ")

	aOops, aOK := oops.AsOops(a)
	bOops, bOK := oops.AsOops(b)
	require.Equal(t, aOK, bOK, "only one error is an oops error")
	if !aOK {
		return
	}
	assert.Equal(t, aOops.Code(), bOops.Code(), "codes differ")
	assert.Equal(t, aOops.Context(), bOops.Context(), "contexts differ")
}
