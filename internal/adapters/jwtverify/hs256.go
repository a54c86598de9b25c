// Package jwtverify signs and verifies HS256 access tokens that share a project secret.
package jwtverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// Config configures the shared-secret verifier and signer.
type Config struct {
	Secret   string
	Issuer   string // optional; checked when set
	Audience string // optional; checked when set
	Leeway   time.Duration
	Now      func() time.Time
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// HS256 verifies tokens signed with the project's JWT secret and can mint them for local use.
type HS256 struct {
	secret []byte
	cfg    Config
	parser *jwt.Parser
}

var _ ports.TokenVerifier = (*HS256)(nil)

// New constructs an HS256 verifier.
func New(cfg Config) (*HS256, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}
	return &HS256{secret: []byte(cfg.Secret), cfg: cfg, parser: jwt.NewParser(opts...)}, nil
}

// Verify validates the token and returns its claims.
func (h *HS256) Verify(_ context.Context, accessToken string) (domainauth.Claims, error) {
	if accessToken == "" {
		return domainauth.Claims{}, errors.New("access token is required")
	}
	var c accessClaims
	if _, err := h.parser.ParseWithClaims(accessToken, &c, func(*jwt.Token) (any, error) {
		return h.secret, nil
	}); err != nil {
		return domainauth.Claims{}, fmt.Errorf("verify access token: %w", err)
	}
	if c.Subject == "" {
		return domainauth.Claims{}, errors.New("access token has no subject")
	}
	out := domainauth.Claims{Subject: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Sign mints an access token for subject that expires after ttl.
func (h *HS256) Sign(subject, email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	if h.cfg.Now != nil {
		now = h.cfg.Now()
	}
	exp := now.Add(ttl)
	claims := accessClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    h.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if h.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{h.cfg.Audience}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return s, exp, nil
}
