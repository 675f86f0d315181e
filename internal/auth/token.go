// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of a session token when none is given.
const DefaultTokenTTL = 24 * time.Hour

// Registered claims managed by TokenService. Callers may not set them.
var reservedClaims = []string{"exp", "iat", "nbf"}

// Claims is the payload of a session token. After a round trip through
// Verify, JSON numbers come back as float64.
type Claims map[string]any

// String returns the string claim at key, or "" if absent or not a string.
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// SessionClaims returns the claims identifying user in a session token.
func SessionClaims(user *PublicUser) Claims {
	return Claims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
	}
}

// TokenConfig is the immutable configuration of a TokenService.
type TokenConfig struct {
	Secret []byte
	// TTL is used by IssueDefault. Zero selects DefaultTokenTTL.
	TTL time.Duration
	// Now overrides the clock. Nil selects time.Now.
	Now func() time.Time
}

// VerifiedToken is the result of a successful verification.
type VerifiedToken struct {
	Claims    Claims
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService signs and verifies HS256 session tokens.
// It is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
	logger *slog.Logger
}

// NewTokenService creates a TokenService. The secret is copied.
// If logger is nil, slog.Default() is used.
func NewTokenService(cfg TokenConfig, logger *slog.Logger) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		secret: slices.Clone(cfg.Secret),
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(now),
		),
		logger: logger,
	}
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// IssueDefault signs claims with the configured TTL.
func (s *TokenService) IssueDefault(claims Claims) (string, error) {
	return s.Issue(claims, s.ttl)
}

// Issue signs claims with an expiry of now+ttl. A ttl of zero or less
// yields a token that is already expired.
func (s *TokenService) Issue(claims Claims, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", oops.Code(CodeTokenSignFailed).Wrapf(ErrSigning, "secret key is not configured")
	}

	payload := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		if slices.Contains(reservedClaims, k) {
			return "", oops.Code(CodeTokenSignFailed).With("claim", k).Wrapf(ErrSigning, "reserved claim")
		}
		payload[k] = v
	}

	now := s.now()
	payload["iat"] = now.Unix()
	payload["exp"] = now.Add(ttl).Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(s.secret)
	if err != nil {
		return "", oops.Code(CodeTokenSignFailed).With("cause", err.Error()).Wrap(ErrSigning)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Every rejection returns the same error; the reason is only logged.
func (s *TokenService) Verify(token string) (*VerifiedToken, error) {
	if len(s.secret) == 0 {
		s.logger.Warn("token rejected", "reason", "secret key is not configured")
		return nil, invalidToken()
	}

	parsed, err := s.parser.Parse(token, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		s.logger.Warn("token rejected", "reason", err.Error())
		return nil, invalidToken()
	}

	payload, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		s.logger.Warn("token rejected", "reason", "unexpected claims type")
		return nil, invalidToken()
	}

	exp, err := payload.GetExpirationTime()
	if err != nil || exp == nil {
		s.logger.Warn("token rejected", "reason", "unreadable expiry")
		return nil, invalidToken()
	}

	verified := &VerifiedToken{
		Claims:    make(Claims, len(payload)),
		ExpiresAt: exp.Time,
	}
	if iat, err := payload.GetIssuedAt(); err == nil && iat != nil {
		verified.IssuedAt = iat.Time
	}
	for k, v := range payload {
		if slices.Contains(reservedClaims, k) {
			continue
		}
		verified.Claims[k] = v
	}
	return verified, nil
}
