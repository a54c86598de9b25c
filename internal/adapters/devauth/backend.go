// Package devauth is an in-process identity backend and profile table for local development.
// Accounts live in memory with bcrypt password hashes; access tokens are HS256 JWTs.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// TokenSigner mints and checks access tokens.
type TokenSigner interface {
	ports.TokenVerifier
	Sign(subject, email string, ttl time.Duration) (string, time.Time, error)
}

// Account is a seeded user. Profile holds the profiles row; id and email are filled in.
type Account struct {
	Email    string
	Password string
	Profile  domainauth.RawProfileRecord
}

// Config controls the dev backend.
type Config struct {
	Signer    TokenSigner
	AccessTTL time.Duration // default 1h when zero
	Accounts  []Account
	Now       func() time.Time
}

type devUser struct {
	id    string
	email string
	hash  []byte
}

// Backend implements ports.IdentityBackend and ports.ProfileRepository for local development.
type Backend struct {
	signer    TokenSigner
	accessTTL time.Duration
	now       func() time.Time

	mu       sync.Mutex
	users    map[string]*devUser // by lower-cased email
	refresh  map[string]string   // refresh token -> user id
	profiles map[string]domainauth.RawProfileRecord
}

var (
	_ ports.IdentityBackend   = (*Backend)(nil)
	_ ports.ProfileRepository = (*Backend)(nil)
)

// NewBackend constructs a dev backend and seeds its accounts.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Signer == nil {
		return nil, errors.New("dev auth: Signer is required")
	}
	ttl := cfg.AccessTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	b := &Backend{
		signer:    cfg.Signer,
		accessTTL: ttl,
		now:       now,
		users:     make(map[string]*devUser),
		refresh:   make(map[string]string),
		profiles:  make(map[string]domainauth.RawProfileRecord),
	}
	for _, a := range cfg.Accounts {
		if _, err := b.create(a.Email, a.Password, a.Profile); err != nil {
			return nil, fmt.Errorf("seed %s: %w", a.Email, err)
		}
	}
	return b, nil
}

// PasswordGrant checks the password and issues a session.
func (b *Backend) PasswordGrant(_ context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
	b.mu.Lock()
	u, ok := b.users[normalizeEmail(creds.Email)]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(creds.Password)) != nil {
		return nil, &domainauth.ProviderError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return b.issue(u)
}

// RefreshGrant rotates a refresh token.
func (b *Backend) RefreshGrant(_ context.Context, refreshToken string) (*domainauth.Session, error) {
	b.mu.Lock()
	userID, ok := b.refresh[refreshToken]
	delete(b.refresh, refreshToken)
	var u *devUser
	if ok {
		u = b.userByIDLocked(userID)
	}
	b.mu.Unlock()
	if u == nil {
		return nil, &domainauth.ProviderError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Not Found"}
	}
	return b.issue(u)
}

// SignUp creates the account and its profile row. Dev accounts need no email confirmation.
func (b *Backend) SignUp(_ context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
	if len(req.Password) < 6 {
		return nil, &domainauth.ProviderError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."}
	}
	row := domainauth.RawProfileRecord{}
	maps.Copy(row, req.Metadata)
	id, err := b.create(req.Email, req.Password, row)
	if err != nil {
		return nil, err
	}
	return &domainauth.SignUpResult{UserID: id}, nil
}

// SignOut revokes every refresh token of the token's user. Unknown tokens are ignored.
func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	claims, err := b.signer.Verify(ctx, accessToken)
	if err != nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for tok, id := range b.refresh {
		if id == claims.Subject {
			delete(b.refresh, tok)
		}
	}
	return nil
}

// QueryProfile returns a copy of the user's profile row.
func (b *Backend) QueryProfile(_ context.Context, userID string) (domainauth.RawProfileRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile not found")
	}
	return maps.Clone(row), nil
}

func (b *Backend) create(email, password string, profile domainauth.RawProfileRecord) (string, error) {
	key := normalizeEmail(email)
	if key == "" {
		return "", &domainauth.ProviderError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Email is required"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[key]; exists {
		return "", &domainauth.ProviderError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	id := uuid.NewString()
	b.users[key] = &devUser{id: id, email: key, hash: hash}
	b.profiles[id] = b.profileRow(id, key, profile)
	return id, nil
}

// profileRow fills the columns the database would default for a new profile.
func (b *Backend) profileRow(id, email string, in domainauth.RawProfileRecord) domainauth.RawProfileRecord {
	row := domainauth.RawProfileRecord{}
	maps.Copy(row, in)
	now := b.now().UTC().Format(time.RFC3339Nano)
	row["id"] = id
	row["email"] = email
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now
	}
	row["updated_at"] = now
	if _, ok := row["role"]; !ok {
		row["role"] = string(domainauth.RoleCustomer)
	}
	role, _ := domainauth.ParseRole(row.String("role"))
	if role != domainauth.RoleCustomer {
		if _, ok := row["verification_status"]; !ok {
			row["verification_status"] = "pending"
		}
	}
	return row
}

func (b *Backend) issue(u *devUser) (*domainauth.Session, error) {
	access, exp, err := b.signer.Sign(u.id, u.email, b.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	b.mu.Lock()
	b.refresh[refresh] = u.id
	b.mu.Unlock()
	return &domainauth.Session{
		UserID:       u.id,
		Email:        u.email,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    exp,
	}, nil
}

func (b *Backend) userByIDLocked(id string) *devUser {
	for _, u := range b.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
