package service

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bengkelink/bengkelink-web/internal/observability/metrics"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

const (
	// DefaultScopeIdleTimeout is how long an unused client scope stays mounted.
	DefaultScopeIdleTimeout = 30 * time.Minute
	// DefaultMaxScopes caps mounted scopes when AuthProviderOptions.MaxScopes is unset.
	DefaultMaxScopes = 10000
)

// IdentityFactory builds the identity client for one client scope.
type IdentityFactory func(scopeID string) (ports.IdentityClient, error)

// AuthProviderOptions groups dependencies for AuthProvider.
type AuthProviderOptions struct {
	NewIdentity IdentityFactory
	// Controller is the template for every scope's controller; Identity is filled per scope.
	Controller  SessionControllerOptions
	IdleTimeout time.Duration
	// MaxScopes bounds mounted scopes. Mounting past it evicts the least recently used scope.
	MaxScopes int
	Metrics   statsd.Sink // Optional: scope gauges emitted on every sweep
	Logger    *slog.Logger
	Now       func() time.Time
}

type mountedScope struct {
	id       string
	ctrl     *SessionController
	lastUsed time.Time
}

// AuthProvider owns the lifecycle of client scopes. Mounting a scope creates and bootstraps its
// controller; unmounting or idling out tears it down.
type AuthProvider struct {
	newIdentity IdentityFactory
	tmpl        SessionControllerOptions
	idle        time.Duration
	maxScopes   int
	metrics     statsd.Sink
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	scopes map[string]*list.Element
	lru    *list.List // front = most recently used
	closed bool
}

// ErrProviderClosed is returned by Mount after Close.
var ErrProviderClosed = errors.New("auth provider closed")

// NewAuthProvider constructs an AuthProvider.
func NewAuthProvider(opts AuthProviderOptions) (*AuthProvider, error) {
	if opts.NewIdentity == nil {
		return nil, errors.New("identity factory is required")
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultScopeIdleTimeout
	}
	maxScopes := opts.MaxScopes
	if maxScopes <= 0 {
		maxScopes = DefaultMaxScopes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tmpl := opts.Controller
	if tmpl.Logger == nil {
		tmpl.Logger = logger
	}
	return &AuthProvider{
		newIdentity: opts.NewIdentity,
		tmpl:        tmpl,
		idle:        idle,
		maxScopes:   maxScopes,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "auth_provider"),
		now:         now,
		scopes:      make(map[string]*list.Element),
		lru:         list.New(),
	}, nil
}

// Mount returns the controller for scopeID, creating and starting it on first use.
// Creating a scope past MaxScopes closes the least recently used one.
func (p *AuthProvider) Mount(ctx context.Context, scopeID string) (*SessionController, error) {
	if scopeID == "" {
		return nil, errScopeRequired
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrProviderClosed
	}
	if m, ok := p.touchLocked(scopeID); ok {
		p.mu.Unlock()
		return m.ctrl, nil
	}

	identity, err := p.newIdentity(scopeID)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("build identity client: %w", err)
	}
	opts := p.tmpl
	opts.Identity = identity
	opts.Logger = p.tmpl.Logger.With("scope", scopeID)
	ctrl, err := NewSessionController(opts)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("build session controller: %w", err)
	}
	evicted := p.evictLocked(p.maxScopes - 1)
	p.scopes[scopeID] = p.lru.PushFront(&mountedScope{id: scopeID, ctrl: ctrl, lastUsed: p.now()})
	p.mu.Unlock()

	for _, m := range evicted {
		m.ctrl.Close()
	}
	if len(evicted) > 0 {
		p.logger.InfoContext(ctx, "scope limit reached; evicted least recently used", "count", len(evicted), "max", p.maxScopes)
	}

	if err := ctrl.Start(ctx); err != nil {
		p.Unmount(scopeID)
		return nil, fmt.Errorf("start session controller: %w", err)
	}
	p.logger.DebugContext(ctx, "scope mounted", "scope", scopeID)
	return ctrl, nil
}

// Lookup returns the mounted controller for scopeID without creating one. A hit counts as use.
func (p *AuthProvider) Lookup(scopeID string) (*SessionController, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.touchLocked(scopeID)
	if !ok {
		return nil, false
	}
	return m.ctrl, true
}

// touchLocked marks the scope used. Caller holds p.mu.
func (p *AuthProvider) touchLocked(scopeID string) (*mountedScope, bool) {
	el, ok := p.scopes[scopeID]
	if !ok {
		return nil, false
	}
	m := el.Value.(*mountedScope) //nolint:forcetypeassert // the list only holds *mountedScope
	m.lastUsed = p.now()
	p.lru.MoveToFront(el)
	return m, true
}

// evictLocked removes least recently used scopes until at most keep remain and returns them
// for the caller to close outside the lock.
func (p *AuthProvider) evictLocked(keep int) []*mountedScope {
	var out []*mountedScope
	for p.lru.Len() > max(keep, 0) {
		out = append(out, p.removeLocked(p.lru.Back()))
	}
	return out
}

func (p *AuthProvider) removeLocked(el *list.Element) *mountedScope {
	m := p.lru.Remove(el).(*mountedScope) //nolint:forcetypeassert // the list only holds *mountedScope
	delete(p.scopes, m.id)
	return m
}

// Unmount tears down the scope's controller if it is mounted.
func (p *AuthProvider) Unmount(scopeID string) {
	p.mu.Lock()
	var m *mountedScope
	if el, ok := p.scopes[scopeID]; ok {
		m = p.removeLocked(el)
	}
	p.mu.Unlock()
	if m != nil {
		m.ctrl.Close()
	}
}

// Len returns the number of mounted scopes.
func (p *AuthProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scopes)
}

// Sweep unmounts scopes unused for longer than the idle timeout and returns how many it removed.
func (p *AuthProvider) Sweep(now time.Time) int {
	p.mu.Lock()
	var idle []*mountedScope
	// Walk from the least recently used end; lastUsed only grows toward the front.
	for el := p.lru.Back(); el != nil; {
		prev := el.Prev()
		m := el.Value.(*mountedScope) //nolint:forcetypeassert // the list only holds *mountedScope
		if now.Sub(m.lastUsed) <= p.idle {
			break
		}
		idle = append(idle, p.removeLocked(el))
		el = prev
	}
	p.mu.Unlock()

	for _, m := range idle {
		m.ctrl.Close()
	}
	return len(idle)
}

// Run sweeps idle scopes every interval until ctx is done, then closes the provider.
func (p *AuthProvider) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Close()
			return nil
		case <-ticker.C:
			n := p.Sweep(p.now())
			if n > 0 {
				p.logger.Debug("swept idle scopes", "count", n)
			}
			metrics.EmitScopes(p.metrics, p.Len(), n)
		}
	}
}

// Close unmounts every scope. Later Mount calls fail with ErrProviderClosed.
func (p *AuthProvider) Close() {
	p.mu.Lock()
	p.closed = true
	scopes := p.evictLocked(0)
	p.mu.Unlock()

	for _, m := range scopes {
		m.ctrl.Close()
	}
}
