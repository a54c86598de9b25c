package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// ScopedIdentityOptions groups dependencies for ScopedIdentity.
type ScopedIdentityOptions struct {
	ScopeID  string
	Backend  ports.IdentityBackend
	Verifier ports.TokenVerifier
	Tokens   ports.SessionTokenStore
	Notifier ports.SessionNotifier
	Profiles ports.ProfileRepository
	Logger   *slog.Logger
	Now      func() time.Time
}

// ScopedIdentity is the identity provider client bound to one client scope.
// It keeps the scope's session in the token store and announces changes through the notifier.
type ScopedIdentity struct {
	scopeID  string
	backend  ports.IdentityBackend
	verifier ports.TokenVerifier
	tokens   ports.SessionTokenStore
	notifier ports.SessionNotifier
	profiles ports.ProfileRepository
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.IdentityClient = (*ScopedIdentity)(nil)

var errScopeRequired = errors.New("scope ID is required")

// NewScopedIdentity constructs a ScopedIdentity.
func NewScopedIdentity(opts ScopedIdentityOptions) (*ScopedIdentity, error) {
	if opts.ScopeID == "" {
		return nil, errScopeRequired
	}
	if opts.Backend == nil || opts.Verifier == nil || opts.Tokens == nil || opts.Notifier == nil || opts.Profiles == nil {
		return nil, errors.New("backend, verifier, tokens, notifier and profiles are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ScopedIdentity{
		scopeID:  opts.ScopeID,
		backend:  opts.Backend,
		verifier: opts.Verifier,
		tokens:   opts.Tokens,
		notifier: opts.Notifier,
		profiles: opts.Profiles,
		logger:   logger.With("component", "identity", "scope", opts.ScopeID),
		now:      now,
	}, nil
}

// GetSession returns the scope's current session, refreshing an expired access token when possible.
// It returns nil without error when the scope has no usable session.
func (s *ScopedIdentity) GetSession(ctx context.Context) (*domainauth.Session, error) {
	sess, err := s.tokens.Get(ctx, s.scopeID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		refreshed, refreshErr := s.refresh(ctx, sess)
		if refreshErr != nil || refreshed == nil {
			return nil, refreshErr
		}
		sess = *refreshed
	}

	claims, err := s.verifier.Verify(ctx, sess.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "dropping session with unverifiable access token", "error", err)
		if delErr := s.tokens.Delete(ctx, s.scopeID); delErr != nil {
			return nil, fmt.Errorf("delete invalid session: %w", delErr)
		}
		return nil, nil
	}
	sess.UserID = claims.Subject
	if claims.Email != "" {
		sess.Email = claims.Email
	}
	return &sess, nil
}

// refresh exchanges the refresh token. A rejected refresh drops the session and yields nil;
// transport failures are returned so the session survives for a later attempt.
func (s *ScopedIdentity) refresh(ctx context.Context, sess domainauth.Session) (*domainauth.Session, error) {
	if sess.RefreshToken == "" {
		return nil, s.drop(ctx)
	}
	refreshed, err := s.backend.RefreshGrant(ctx, sess.RefreshToken)
	if err != nil {
		var pe *domainauth.ProviderError
		if errors.As(err, &pe) {
			s.logger.InfoContext(ctx, "refresh token rejected", "error", err)
			return nil, s.drop(ctx)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if err := s.tokens.Save(ctx, s.scopeID, *refreshed); err != nil {
		return nil, fmt.Errorf("save refreshed session: %w", err)
	}
	s.publish(ctx, domainauth.EventTokenRefreshed)
	return refreshed, nil
}

func (s *ScopedIdentity) drop(ctx context.Context) error {
	if err := s.tokens.Delete(ctx, s.scopeID); err != nil {
		return fmt.Errorf("delete expired session: %w", err)
	}
	return nil
}

// OnSessionChange subscribes fn to the scope's session changes until the subscription is
// unsubscribed or ctx is done. Events carry only their type; fn runs on the notifier's
// dispatch goroutine and must not block, so listeners read the session themselves.
func (s *ScopedIdentity) OnSessionChange(ctx context.Context, fn func(domainauth.SessionEvent)) (ports.Subscription, error) {
	sub, err := s.notifier.Subscribe(ctx, s.scopeID, func(t domainauth.SessionEventType) {
		fn(domainauth.SessionEvent{Type: t})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe session changes: %w", err)
	}
	return sub, nil
}

// SignInWithPassword authenticates with the backend and stores the new session for the scope.
func (s *ScopedIdentity) SignInWithPassword(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
	sess, err := s.backend.PasswordGrant(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, s.scopeID, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.publish(ctx, domainauth.EventSignedIn)
	return sess, nil
}

// SignUp registers an account. It never establishes a session for the scope.
func (s *ScopedIdentity) SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
	return s.backend.SignUp(ctx, req)
}

// SignOut revokes the session remotely and always forgets it locally.
func (s *ScopedIdentity) SignOut(ctx context.Context) error {
	sess, err := s.tokens.Get(ctx, s.scopeID)
	if errors.Is(err, ports.ErrSessionNotFound) {
		s.publish(ctx, domainauth.EventSignedOut)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}

	var revokeErr error
	if err := s.backend.SignOut(ctx, sess.AccessToken); err != nil {
		revokeErr = fmt.Errorf("revoke session: %w", err)
	}
	var deleteErr error
	if err := s.tokens.Delete(ctx, s.scopeID); err != nil {
		deleteErr = fmt.Errorf("delete session: %w", err)
	}
	s.publish(ctx, domainauth.EventSignedOut)
	return errors.Join(revokeErr, deleteErr)
}

// QueryProfile reads the profiles row for userID.
func (s *ScopedIdentity) QueryProfile(ctx context.Context, userID string) (domainauth.RawProfileRecord, error) {
	return s.profiles.QueryProfile(ctx, userID)
}

func (s *ScopedIdentity) publish(ctx context.Context, evt domainauth.SessionEventType) {
	if err := s.notifier.Publish(ctx, s.scopeID, evt); err != nil {
		s.logger.WarnContext(ctx, "publish session change", "event", evt, "error", err)
	}
}
