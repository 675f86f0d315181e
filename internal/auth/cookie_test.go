// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/auth"
)

func setCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestCookieManager_SetDefaults(t *testing.T) {
	m := auth.NewCookieManager(false, 0)
	rec := httptest.NewRecorder()

	m.Set(rec, "token", "abc.def.ghi")

	c := setCookie(t, rec)
	assert.Equal(t, "token", c.Name)
	assert.Equal(t, "abc.def.ghi", c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(auth.DefaultCookieMaxAge/time.Second), c.MaxAge)
}

func TestCookieManager_SecureInProduction(t *testing.T) {
	m := auth.NewCookieManager(true, 0)
	rec := httptest.NewRecorder()

	m.Set(rec, "token", "v")

	assert.True(t, setCookie(t, rec).Secure)
}

func TestCookieManager_OverridesWin(t *testing.T) {
	m := auth.NewCookieManager(true, 0)
	rec := httptest.NewRecorder()

	m.Set(rec, "token", "v",
		auth.WithMaxAge(24*time.Hour),
		auth.WithPath("/api"),
		auth.WithDomain("example.com"),
		auth.WithSecure(false),
		auth.WithSameSite(http.SameSiteLaxMode),
		auth.WithHTTPOnly(false),
	)

	c := setCookie(t, rec)
	assert.Equal(t, 86400, c.MaxAge)
	assert.Equal(t, "/api", c.Path)
	assert.Equal(t, "example.com", c.Domain)
	assert.False(t, c.Secure)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestCookieManager_ClearMatchesAttributes(t *testing.T) {
	m := auth.NewCookieManager(true, 0)

	setRec := httptest.NewRecorder()
	m.Set(setRec, "token", "v", auth.WithPath("/api"))
	set := setCookie(t, setRec)

	clearRec := httptest.NewRecorder()
	m.Clear(clearRec, "token", auth.WithPath("/api"))
	cleared := setCookie(t, clearRec)

	assert.Equal(t, set.Name, cleared.Name)
	assert.Equal(t, set.Path, cleared.Path)
	assert.Equal(t, set.Secure, cleared.Secure)
	assert.Equal(t, set.HttpOnly, cleared.HttpOnly)
	assert.Equal(t, set.SameSite, cleared.SameSite)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestCookieManager_Get(t *testing.T) {
	m := auth.NewCookieManager(false, 0)

	t.Run("returns raw value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: "not-validated"})

		value, ok := m.Get(req, "token")
		assert.True(t, ok)
		assert.Equal(t, "not-validated", value)
	})

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := m.Get(req, "token")
		assert.False(t, ok)
	})
}
