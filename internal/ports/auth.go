package ports

// Package ports defines interfaces (hexagonal ports) for identity, profile and storage behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// ErrSessionNotFound is returned by SessionTokenStore.Get when a scope holds no session.
var ErrSessionNotFound = errors.New("session not found")

// IdentityBackend is the remote identity service (password grant, refresh, signup, logout).
// It is stateless: callers own the resulting session material.
type IdentityBackend interface {
	// PasswordGrant exchanges an email and password for a session.
	PasswordGrant(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error)

	// RefreshGrant exchanges a refresh token for a new session.
	RefreshGrant(ctx context.Context, refreshToken string) (*domainauth.Session, error)

	// SignUp registers a new account. The result carries no session when email confirmation is pending.
	SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error)

	// SignOut revokes the session identified by accessToken.
	SignOut(ctx context.Context, accessToken string) error
}

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (domainauth.Claims, error)
}

// SessionTokenStore keeps identity sessions on behalf of client scopes.
type SessionTokenStore interface {
	Save(ctx context.Context, scopeID string, sess domainauth.Session) error
	Get(ctx context.Context, scopeID string) (domainauth.Session, error)
	Delete(ctx context.Context, scopeID string) error
}

// Subscription is an active session change subscription.
type Subscription interface {
	Unsubscribe()
}

// SessionNotifier fans session change events out to every subscriber of a scope,
// including subscribers in other processes.
type SessionNotifier interface {
	Publish(ctx context.Context, scopeID string, evt domainauth.SessionEventType) error
	Subscribe(ctx context.Context, scopeID string, fn func(domainauth.SessionEventType)) (Subscription, error)
}

// ProfileRepository reads rows of the profiles table.
type ProfileRepository interface {
	// QueryProfile returns the single row keyed by userID. A missing row is a not-found error.
	QueryProfile(ctx context.Context, userID string) (domainauth.RawProfileRecord, error)
}

// IdentityClient is the identity provider as seen by one client scope.
type IdentityClient interface {
	GetSession(ctx context.Context) (*domainauth.Session, error)
	OnSessionChange(ctx context.Context, fn func(domainauth.SessionEvent)) (Subscription, error)
	SignInWithPassword(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error)
	SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error)
	SignOut(ctx context.Context) error
	QueryProfile(ctx context.Context, userID string) (domainauth.RawProfileRecord, error)
}
