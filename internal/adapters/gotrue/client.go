// Package gotrue is an HTTP client for a GoTrue-compatible identity backend.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 1 << 20

// Config holds configuration for the client.
type Config struct {
	// URL is the auth API root, e.g. https://<project>.supabase.co/auth/v1.
	URL string
	// APIKey is the project's public key, sent as the apikey header.
	APIKey     string
	HTTPClient *http.Client // Optional, defaults to a 15s client
	Now        func() time.Time
}

// Client implements ports.IdentityBackend over the GoTrue REST API.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	now    func() time.Time
}

var _ ports.IdentityBackend = (*Client)(nil)

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("identity URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse identity URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("identity URL must be http(s): %q", cfg.URL)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("identity API key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{base: base, apiKey: cfg.APIKey, http: httpClient, now: now}, nil
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// signupResponse is either a session (auto-confirm) or a bare user (confirmation pending).
type signupResponse struct {
	tokenResponse
	ID    string `json:"id"`
	Email string `json:"email"`
}

// PasswordGrant exchanges email and password for a session.
func (c *Client) PasswordGrant(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
	var out tokenResponse
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	if err := c.do(ctx, c.http, request{method: http.MethodPost, path: "/token", query: url.Values{"grant_type": {"password"}}, body: body}, &out); err != nil {
		return nil, err
	}
	return c.session(out)
}

// RefreshGrant exchanges a refresh token for a new session.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*domainauth.Session, error) {
	var out tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, c.http, request{method: http.MethodPost, path: "/token", query: url.Values{"grant_type": {"refresh_token"}}, body: body}, &out); err != nil {
		return nil, err
	}
	return c.session(out)
}

// SignUp registers a new account with its metadata.
func (c *Client) SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
	query := url.Values{}
	if req.RedirectTo != "" {
		query.Set("redirect_to", req.RedirectTo)
	}
	body := map[string]any{"email": req.Email, "password": req.Password, "data": req.Metadata}

	var out signupResponse
	if err := c.do(ctx, c.http, request{method: http.MethodPost, path: "/signup", query: query, body: body}, &out); err != nil {
		return nil, err
	}

	res := &domainauth.SignUpResult{UserID: out.ID}
	if out.AccessToken != "" {
		sess, err := c.session(out.tokenResponse)
		if err != nil {
			return nil, err
		}
		res.Session = sess
		res.UserID = sess.UserID
	}
	return res, nil
}

// SignOut revokes the session behind accessToken. A token the backend no longer
// recognizes counts as already signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	bearer := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	err := c.do(ctx, bearer, request{method: http.MethodPost, path: "/logout", query: url.Values{"scope": {"local"}}}, nil)
	var pe *domainauth.ProviderError
	if errors.As(err, &pe) {
		switch pe.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil
		}
	}
	return err
}

func (c *Client) session(t tokenResponse) (*domainauth.Session, error) {
	if t.AccessToken == "" {
		return nil, errors.New("identity response has no access token")
	}
	sess := &domainauth.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	switch {
	case t.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		sess.ExpiresAt = c.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	default:
		sess.ExpiresAt = c.now().Add(time.Hour)
	}
	if t.User != nil {
		sess.UserID = t.User.ID
		sess.Email = t.User.Email
	}
	return sess, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, hc *http.Client, r request, out any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
