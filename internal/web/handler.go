// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/observability"
)

// DefaultCookieName names the session cookie when none is configured.
const DefaultCookieName = "token"

// Handler serves the auth endpoints.
type Handler struct {
	users      *auth.Service
	tokens     *auth.TokenService
	cookies    *auth.CookieManager
	cookieName string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.cookieName = name
		}
	}
}

// WithMetrics records auth outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the logger for request logs and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler. All three dependencies are required.
func NewHandler(users *auth.Service, tokens *auth.TokenService, cookies *auth.CookieManager, opts ...Option) (*Handler, error) {
	switch {
	case users == nil:
		return nil, oops.Code("WEB_INVALID_HANDLER").Errorf("auth service is required")
	case tokens == nil:
		return nil, oops.Code("WEB_INVALID_HANDLER").Errorf("token service is required")
	case cookies == nil:
		return nil, oops.Code("WEB_INVALID_HANDLER").Errorf("cookie manager is required")
	}

	h := &Handler{
		users:      users,
		tokens:     tokens,
		cookies:    cookies,
		cookieName: DefaultCookieName,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User      auth.Claims `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// handleSignUp registers an account with the user role and starts a session.
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.RecordRegistration(observability.ResultFailure)
		h.respondError(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     auth.RoleUser,
	})
	if err != nil {
		h.metrics.RecordRegistration(outcome(err))
		h.respondError(w, r, err)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.metrics.RecordRegistration(observability.ResultError)
		h.respondError(w, r, err)
		return
	}
	h.metrics.RecordRegistration(observability.ResultSuccess)
	respondJSON(w, http.StatusCreated, messageBody{Message: "User created", User: user})
}

// handleSignIn checks credentials and starts a session.
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.RecordLogin(observability.ResultFailure)
		h.respondError(w, r, err)
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), auth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.metrics.RecordLogin(outcome(err))
		h.respondError(w, r, err)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.metrics.RecordLogin(observability.ResultError)
		h.respondError(w, r, err)
		return
	}
	h.metrics.RecordLogin(observability.ResultSuccess)
	respondJSON(w, http.StatusOK, messageBody{Message: "Signed in", User: user})
}

// handleSignOut clears the session cookie. Tokens are stateless, so a copy
// of the token stays valid until it expires.
func (h *Handler) handleSignOut(w http.ResponseWriter, _ *http.Request) {
	h.cookies.Clear(w, h.cookieName)
	respondJSON(w, http.StatusOK, messageBody{Message: "Signed out"})
}

// handleMe returns the claims of the current session.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.cookies.Get(r, h.cookieName)
	if !ok {
		h.metrics.RecordTokenVerification(observability.ResultFailure)
		h.respondError(w, r, auth.ErrInvalidToken)
		return
	}

	verified, err := h.tokens.Verify(raw)
	if err != nil {
		h.metrics.RecordTokenVerification(observability.ResultFailure)
		h.respondError(w, r, err)
		return
	}
	h.metrics.RecordTokenVerification(observability.ResultSuccess)
	respondJSON(w, http.StatusOK, meResponse{User: verified.Claims, ExpiresAt: verified.ExpiresAt})
}

func (h *Handler) startSession(w http.ResponseWriter, user *auth.PublicUser) error {
	token, err := h.tokens.IssueDefault(auth.SessionClaims(user))
	if err != nil {
		return oops.With("operation", "issue session token", "user_id", user.ID.String()).Wrap(err)
	}
	h.cookies.Set(w, h.cookieName, token)
	return nil
}

// outcome classifies an auth error for the result label: rejected requests
// are failures, everything else is an error.
func outcome(err error) string {
	switch auth.KindOf(err) {
	case auth.KindInvalidInput, auth.KindDuplicateUser, auth.KindAuthentication, auth.KindInvalidToken:
		return observability.ResultFailure
	default:
		return observability.ResultError
	}
}
