// Package oidc verifies identity provider access tokens against a published JWKS.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// VerifierConfig holds configuration for the JWKS verifier.
type VerifierConfig struct {
	// Issuer is the token issuer, e.g. https://<project>.supabase.co/auth/v1.
	Issuer string
	// JWKSURL defaults to Issuer + "/.well-known/jwks.json".
	JWKSURL string
	// Audience is matched against the aud claim. Empty skips the check.
	Audience   string
	HTTPClient *http.Client // Optional, defaults to a 30s client
	Now        func() time.Time
}

// Verifier validates asymmetric (RS256/ES256) access tokens.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

var _ ports.TokenVerifier = (*Verifier)(nil)

// NewVerifier builds a verifier backed by a remote key set. Keys are fetched lazily and cached.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	if issuer == "" {
		return nil, errors.New("issuer is required")
	}
	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := gooidc.ClientContext(context.Background(), httpClient)
	keySet := gooidc.NewRemoteKeySet(ctx, jwksURL)
	v := gooidc.NewVerifier(issuer, keySet, &gooidc.Config{
		ClientID:             cfg.Audience,
		SkipClientIDCheck:    cfg.Audience == "",
		SupportedSigningAlgs: []string{gooidc.RS256, gooidc.ES256},
		Now:                  cfg.Now,
	})
	return &Verifier{verifier: v}, nil
}

type accessClaims struct {
	Email string `json:"email"`
}

// Verify checks signature, issuer, audience and expiry, then returns the token's claims.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (domainauth.Claims, error) {
	if accessToken == "" {
		return domainauth.Claims{}, errors.New("access token is required")
	}
	tok, err := v.verifier.Verify(ctx, accessToken)
	if err != nil {
		return domainauth.Claims{}, fmt.Errorf("verify access token: %w", err)
	}
	var c accessClaims
	if err := tok.Claims(&c); err != nil {
		return domainauth.Claims{}, fmt.Errorf("parse access token claims: %w", err)
	}
	if tok.Subject == "" {
		return domainauth.Claims{}, errors.New("access token has no subject")
	}
	return domainauth.Claims{Subject: tok.Subject, Email: c.Email, ExpiresAt: tok.Expiry}, nil
}
