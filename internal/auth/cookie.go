// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"net/http"
	"time"
)

// DefaultCookieMaxAge is the session cookie lifetime. It is shorter than
// DefaultTokenTTL; sessions that should outlive it must extend both.
const DefaultCookieMaxAge = 15 * time.Minute

// CookieOption overrides a session cookie attribute.
type CookieOption func(*http.Cookie)

// WithMaxAge overrides the cookie lifetime.
func WithMaxAge(d time.Duration) CookieOption {
	return func(c *http.Cookie) { c.MaxAge = int(d / time.Second) }
}

// WithPath overrides the cookie path.
func WithPath(path string) CookieOption {
	return func(c *http.Cookie) { c.Path = path }
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) CookieOption {
	return func(c *http.Cookie) { c.Domain = domain }
}

// WithSecure overrides the Secure attribute.
func WithSecure(secure bool) CookieOption {
	return func(c *http.Cookie) { c.Secure = secure }
}

// WithHTTPOnly overrides the HttpOnly attribute.
func WithHTTPOnly(httpOnly bool) CookieOption {
	return func(c *http.Cookie) { c.HttpOnly = httpOnly }
}

// WithSameSite overrides the SameSite attribute.
func WithSameSite(mode http.SameSite) CookieOption {
	return func(c *http.Cookie) { c.SameSite = mode }
}

// CookieManager writes session tokens to HTTP cookies with fixed security
// attributes. Values are not validated here; that is TokenService's job.
type CookieManager struct {
	secure bool
	maxAge time.Duration
}

// NewCookieManager creates a CookieManager. secure should be true only in
// production. A maxAge of zero selects DefaultCookieMaxAge.
func NewCookieManager(secure bool, maxAge time.Duration) *CookieManager {
	if maxAge == 0 {
		maxAge = DefaultCookieMaxAge
	}
	return &CookieManager{secure: secure, maxAge: maxAge}
}

func (m *CookieManager) base(name, value string, opts []CookieOption) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(m.maxAge / time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set writes the cookie. Options are applied over the defaults.
func (m *CookieManager) Set(w http.ResponseWriter, name, value string, opts ...CookieOption) {
	c := m.base(name, value, opts)
	if c.MaxAge > 0 {
		c.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second).UTC()
	}
	http.SetCookie(w, c)
}

// Clear deletes the cookie. It must be called with the same options that
// were passed to Set or browsers will keep the original.
func (m *CookieManager) Clear(w http.ResponseWriter, name string, opts ...CookieOption) {
	c := m.base(name, "", opts)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, c)
}

// Get returns the raw value of the named cookie.
func (m *CookieManager) Get(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
