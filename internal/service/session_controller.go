package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// SessionControllerOptions groups dependencies for SessionController.
type SessionControllerOptions struct {
	Identity ports.IdentityClient
	Retry    RetryPolicy
	// EmailDomain is used to build workshop sign-in identifiers.
	EmailDomain string
	// SignupRedirectURL is where confirmation emails send new users.
	SignupRedirectURL string
	Logger            *slog.Logger
	Now               func() time.Time
}

// SessionController keeps one scope's AuthState in step with the identity provider and
// performs login, signup and logout. It is the only writer of its AuthStateStore.
type SessionController struct {
	identity          ports.IdentityClient
	retry             RetryPolicy
	emailDomain       string
	signupRedirectURL string
	logger            *slog.Logger
	now               func() time.Time

	store *AuthStateStore
	notes *Notifications

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	bgCancel context.CancelFunc
	sub      ports.Subscription
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

var errNoProfileRow = errors.New("profile row not found")

// NewSessionController constructs a controller holding InitialState. Call Start to bootstrap it.
func NewSessionController(opts SessionControllerOptions) (*SessionController, error) {
	if opts.Identity == nil {
		return nil, errors.New("identity client is required")
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}
	domain := opts.EmailDomain
	if domain == "" {
		domain = domainauth.DefaultEmailDomain
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionController{
		identity:          opts.Identity,
		retry:             retry,
		emailDomain:       domain,
		signupRedirectURL: opts.SignupRedirectURL,
		logger:            logger.With("component", "session_controller"),
		now:               now,
		store:             NewAuthStateStore(),
		notes:             &Notifications{},
		ctx:               ctx,
		cancel:            cancel,
	}, nil
}

// State returns the current AuthState.
func (c *SessionController) State() domainauth.AuthState { return c.store.Get() }

// Store exposes the controller's state cell for readers.
func (c *SessionController) Store() *AuthStateStore { return c.store }

// Notifications returns the scope's pending notification queue.
func (c *SessionController) Notifications() *Notifications { return c.notes }

// Start subscribes to session changes and bootstraps the state in the background.
// It is a no-op after the first call.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	sub, err := c.identity.OnSessionChange(c.ctx, c.onSessionChange)
	if err != nil {
		// Without notifications the scope still works; it only misses changes made elsewhere.
		c.logger.WarnContext(ctx, "session change subscription failed", "error", err)
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	c.startFlow(c.bootstrap)
	return nil
}

// Close unsubscribes, cancels in-flight flows and waits for them to finish.
func (c *SessionController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	c.cancel()
	c.wg.Wait()
}

// Bootstrap looks the session up once and loads its profile. Start runs it in the background.
func (c *SessionController) Bootstrap(ctx context.Context) {
	c.bootstrap(ctx, c.supersede())
}

func (c *SessionController) bootstrap(ctx context.Context, token uint64) {
	sess, err := c.identity.GetSession(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "initial session lookup failed", "error", err)
	}
	if sess == nil {
		c.store.ReplaceIf(token, domainauth.SignedOutState())
		return
	}
	c.loadProfile(ctx, token, sess)
}

// onSessionChange runs on the notifier's goroutine. It only claims a token in arrival order;
// the session is read again on the flow's own goroutine so slow lookups never hold up delivery.
func (c *SessionController) onSessionChange(evt domainauth.SessionEvent) {
	c.startFlow(func(ctx context.Context, token uint64) {
		if evt.Type == domainauth.EventSignedOut {
			c.store.ReplaceIf(token, domainauth.SignedOutState())
			return
		}
		sess := evt.Session
		if sess == nil {
			var err error
			sess, err = c.identity.GetSession(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.WarnContext(ctx, "session lookup after change failed", "event", evt.Type, "error", err)
			}
		}
		if sess == nil {
			c.store.ReplaceIf(token, domainauth.SignedOutState())
			return
		}
		c.loadProfile(ctx, token, sess)
	})
}

// supersede cancels the in-flight bootstrap or notification flow and takes a newer token,
// marking the state loading.
func (c *SessionController) supersede() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bgCancel != nil {
		c.bgCancel()
		c.bgCancel = nil
	}
	return c.store.BeginFlow()
}

// startFlow supersedes the previous background flow and runs fn on its own goroutine
// with a fresh token. It does nothing once the controller is closed.
func (c *SessionController) startFlow(fn func(ctx context.Context, token uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.bgCancel != nil {
		c.bgCancel()
	}
	fctx, cancel := context.WithCancel(c.ctx)
	c.bgCancel = cancel
	token := c.store.BeginFlow()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(fctx, token)
	}()
}

// loadProfile fetches the session's profile with retries and writes the resulting state under token.
// It reports whether the profile was loaded, independent of whether the write was superseded.
func (c *SessionController) loadProfile(ctx context.Context, token uint64, sess *domainauth.Session) bool {
	if sess == nil || sess.UserID == "" {
		return false
	}

	var raw domainauth.RawProfileRecord
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		rec, err := c.identity.QueryProfile(ctx, sess.UserID)
		if err == nil && rec == nil {
			err = errNoProfileRow
		}
		if err != nil {
			c.logger.DebugContext(ctx, "profile fetch attempt failed",
				"attempt", attempt, "user_id", sess.UserID, "error", err)
			return err
		}
		raw = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		c.logger.WarnContext(ctx, "profile could not be loaded", "user_id", sess.UserID, "error", err)
		c.store.ReplaceIf(token, domainauth.SignedOutState())
		return false
	}

	user, err := domainauth.MapProfile(raw, sess.Email, c.now())
	if err != nil {
		c.logger.ErrorContext(ctx, "map profile", "user_id", sess.UserID, "error", err)
		c.store.ReplaceIf(token, domainauth.SignedOutState())
		return false
	}
	if !c.store.ReplaceIf(token, domainauth.SignedInState(user)) {
		c.logger.DebugContext(ctx, "profile result superseded by a newer flow", "user_id", sess.UserID)
	}
	return true
}

// Login signs in and loads the profile. The state is loading for the whole call. If a session
// change event supersedes the call (sign-in itself publishes one), the newer flow settles the
// state and Login leaves the loading flag to it.
func (c *SessionController) Login(ctx context.Context, creds domainauth.LoginCredentials) (res domainauth.LoginResult) {
	if !creds.HasIdentifier() || creds.Password == "" {
		return loginFailure(domainauth.FailureValidation, msgLoginMissingFields)
	}

	token := c.supersede()
	defer c.store.UpdateIf(token, func(s domainauth.AuthState) domainauth.AuthState { return s.WithLoading(false) })
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "login panicked", "panic", r)
			c.notify(NotificationDestructive, "Login Gagal", msgLoginGeneric)
			res = loginFailure(domainauth.FailureUnexpected, msgLoginGeneric)
		}
	}()

	sess, err := c.identity.SignInWithPassword(ctx, domainauth.PasswordCredentials{
		Email:    creds.Identifier(c.emailDomain),
		Password: creds.Password,
	})
	if err != nil {
		return c.loginProviderFailure(ctx, err)
	}
	if sess == nil || sess.UserID == "" {
		return loginFailure(domainauth.FailureProvider, msgLoginNoUser)
	}

	if !c.loadProfile(ctx, token, sess) {
		return loginFailure(domainauth.FailureProfileLoad, msgLoginProfileFailed)
	}

	// Re-read the session and role column rather than trusting the state, which a
	// concurrent flow may have replaced.
	current, err := c.identity.GetSession(ctx)
	if err != nil || current == nil {
		return loginFailure(domainauth.FailureProvider, msgLoginInvalidSession)
	}
	row, err := c.identity.QueryProfile(ctx, current.UserID)
	if err != nil || row == nil {
		return loginFailure(domainauth.FailureProfileLoad, msgLoginRoleFailed)
	}
	role, ok := domainauth.ParseRole(row.String("role"))
	if !ok {
		role = domainauth.RoleCustomer
	}
	c.logger.InfoContext(ctx, "user logged in", "user_id", current.UserID, "role", role)
	return domainauth.LoginResult{Success: true, Role: role}
}

func (c *SessionController) loginProviderFailure(ctx context.Context, err error) domainauth.LoginResult {
	var pe *domainauth.ProviderError
	if errors.As(err, &pe) {
		c.logger.InfoContext(ctx, "sign-in rejected", "code", pe.Code, "status", pe.Status)
		if isInvalidCredentials(pe) {
			return loginFailure(domainauth.FailureProvider, msgLoginInvalid)
		}
		return loginFailure(domainauth.FailureProvider, msgLoginGeneric)
	}
	c.logger.ErrorContext(ctx, "sign-in failed", "error", err)
	c.notify(NotificationDestructive, "Login Gagal", msgLoginGeneric)
	return loginFailure(domainauth.FailureUnexpected, msgLoginGeneric)
}

func loginFailure(kind domainauth.FailureKind, msg string) domainauth.LoginResult {
	return domainauth.LoginResult{Success: false, Error: msg, Kind: kind}
}

// Signup validates the input and registers the account. It never signs the user in.
func (c *SessionController) Signup(ctx context.Context, data domainauth.SignupData) (res domainauth.SignupResult) {
	if err := ValidateSignup(data); err != nil {
		msg := err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		c.notify(NotificationDestructive, "Error", msg)
		return domainauth.SignupResult{Error: msg, Field: apperrors.GetField(err), Kind: domainauth.FailureValidation}
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "signup panicked", "panic", r)
			c.notify(NotificationDestructive, "Error", msgSignupUnexpected)
			res = domainauth.SignupResult{Error: msgSignupUnexpected, Kind: domainauth.FailureUnexpected}
		}
	}()

	out, err := c.identity.SignUp(ctx, domainauth.SignUpRequest{
		Email:      strings.TrimSpace(data.Email),
		Password:   data.Password,
		RedirectTo: c.signupRedirectURL,
		Metadata:   data.Metadata(),
	})
	if err != nil {
		var pe *domainauth.ProviderError
		if !errors.As(err, &pe) {
			c.logger.ErrorContext(ctx, "signup failed", "error", err)
			c.notify(NotificationDestructive, "Error", msgSignupUnexpected)
			return domainauth.SignupResult{Error: msgSignupUnexpected, Kind: domainauth.FailureUnexpected}
		}
		msg := SignupErrorMessage(err)
		c.logger.InfoContext(ctx, "signup rejected", "code", pe.Code, "status", pe.Status)
		c.notify(NotificationDestructive, "Error", msg)
		return domainauth.SignupResult{Error: msg, Kind: domainauth.FailureProvider}
	}
	if out == nil || out.UserID == "" {
		return domainauth.SignupResult{Error: msgSignupUnknown, Kind: domainauth.FailureUnexpected}
	}

	c.logger.InfoContext(ctx, "user signed up", "user_id", out.UserID, "role", data.Role)
	c.notify(NotificationDefault, "Sukses", msgSignupSuccess)
	// No session means the provider sent a confirmation email; otherwise the account is
	// already confirmed and the user can sign in straight away.
	return domainauth.SignupResult{Success: true, RequiresConfirmation: out.Session == nil}
}

// Logout signs out. The scope always ends signed out: a failed remote sign-out still clears
// local state and queues a failure notification. The returned error reports that failure.
func (c *SessionController) Logout(ctx context.Context) error {
	// Supersede any in-flight profile flow so it cannot sign the scope back in.
	c.supersede()

	err := c.identity.SignOut(ctx)
	c.store.Replace(domainauth.SignedOutState())

	if err != nil {
		c.logger.WarnContext(ctx, "logout failed; local state cleared", "error", err)
		c.notify(NotificationDestructive, msgLogoutFailedTitle, msgLogoutFailed)
		return fmt.Errorf("sign out: %w", err)
	}
	c.notify(NotificationDefault, msgLogoutSuccessTitle, msgLogoutSuccess)
	return nil
}

func (c *SessionController) notify(kind NotificationKind, title, msg string) {
	c.notes.Push(Notification{Kind: kind, Title: title, Message: msg})
}
