package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sync"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityClient    = (*FakeIdentityClient)(nil)
	_ ports.IdentityBackend   = (*FakeBackend)(nil)
	_ ports.TokenVerifier     = (*StaticVerifier)(nil)
	_ ports.SessionTokenStore = (*MemoryTokenStore)(nil)
	_ ports.SessionNotifier   = (*MemoryNotifier)(nil)
	_ ports.ProfileRepository = (*MemoryProfiles)(nil)
)

// FakeIdentityClient is an IdentityClient whose behavior is set per test through Func fields.
// Unset functions return zero values. Calls are counted per method.
type FakeIdentityClient struct {
	GetSessionFunc         func(ctx context.Context) (*domainauth.Session, error)
	OnSessionChangeFunc    func(ctx context.Context, fn func(domainauth.SessionEvent)) (ports.Subscription, error)
	SignInWithPasswordFunc func(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error)
	SignUpFunc             func(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error)
	SignOutFunc            func(ctx context.Context) error
	QueryProfileFunc       func(ctx context.Context, userID string) (domainauth.RawProfileRecord, error)

	mu       sync.Mutex
	calls    map[string]int
	listener func(domainauth.SessionEvent)
}

func (f *FakeIdentityClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

// Calls returns how many times the named method was called.
func (f *FakeIdentityClient) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of calls across every method.
func (f *FakeIdentityClient) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Emit delivers evt to the listener registered through OnSessionChange, if any.
func (f *FakeIdentityClient) Emit(evt domainauth.SessionEvent) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(evt)
	}
}

func (f *FakeIdentityClient) GetSession(ctx context.Context) (*domainauth.Session, error) {
	f.record("GetSession")
	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx)
	}
	return nil, nil
}

func (f *FakeIdentityClient) OnSessionChange(ctx context.Context, fn func(domainauth.SessionEvent)) (ports.Subscription, error) {
	f.record("OnSessionChange")
	if f.OnSessionChangeFunc != nil {
		return f.OnSessionChangeFunc(ctx, fn)
	}
	f.mu.Lock()
	f.listener = fn
	f.mu.Unlock()
	return SubscriptionFunc(func() {
		f.mu.Lock()
		f.listener = nil
		f.mu.Unlock()
	}), nil
}

func (f *FakeIdentityClient) SignInWithPassword(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
	f.record("SignInWithPassword")
	if f.SignInWithPasswordFunc != nil {
		return f.SignInWithPasswordFunc(ctx, creds)
	}
	return nil, errors.New("sign in not configured")
}

func (f *FakeIdentityClient) SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
	f.record("SignUp")
	if f.SignUpFunc != nil {
		return f.SignUpFunc(ctx, req)
	}
	return nil, errors.New("sign up not configured")
}

func (f *FakeIdentityClient) SignOut(ctx context.Context) error {
	f.record("SignOut")
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	return nil
}

func (f *FakeIdentityClient) QueryProfile(ctx context.Context, userID string) (domainauth.RawProfileRecord, error) {
	f.record("QueryProfile")
	if f.QueryProfileFunc != nil {
		return f.QueryProfileFunc(ctx, userID)
	}
	return nil, apperrors.NotFound("profile not found")
}

// SubscriptionFunc adapts a function to ports.Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() { f() }

// FakeBackend is an IdentityBackend driven by Func fields.
type FakeBackend struct {
	PasswordGrantFunc func(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error)
	RefreshGrantFunc  func(ctx context.Context, refreshToken string) (*domainauth.Session, error)
	SignUpFunc        func(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error)
	SignOutFunc       func(ctx context.Context, accessToken string) error
}

func (b *FakeBackend) PasswordGrant(ctx context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
	if b.PasswordGrantFunc != nil {
		return b.PasswordGrantFunc(ctx, creds)
	}
	return nil, &domainauth.ProviderError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
}

func (b *FakeBackend) RefreshGrant(ctx context.Context, refreshToken string) (*domainauth.Session, error) {
	if b.RefreshGrantFunc != nil {
		return b.RefreshGrantFunc(ctx, refreshToken)
	}
	return nil, &domainauth.ProviderError{Status: 400, Code: "refresh_token_not_found", Message: "Invalid Refresh Token"}
}

func (b *FakeBackend) SignUp(ctx context.Context, req domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
	if b.SignUpFunc != nil {
		return b.SignUpFunc(ctx, req)
	}
	return &domainauth.SignUpResult{UserID: "new-user"}, nil
}

func (b *FakeBackend) SignOut(ctx context.Context, accessToken string) error {
	if b.SignOutFunc != nil {
		return b.SignOutFunc(ctx, accessToken)
	}
	return nil
}

// StaticVerifier accepts the tokens listed in Tokens and rejects everything else.
type StaticVerifier struct {
	Tokens map[string]domainauth.Claims
}

func (v *StaticVerifier) Verify(_ context.Context, accessToken string) (domainauth.Claims, error) {
	c, ok := v.Tokens[accessToken]
	if !ok {
		return domainauth.Claims{}, errors.New("invalid token")
	}
	return c, nil
}

// MemoryTokenStore is an in-memory SessionTokenStore for unit tests.
type MemoryTokenStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemoryTokenStore) Save(_ context.Context, scopeID string, sess domainauth.Session) error {
	if scopeID == "" {
		return errors.New("scope ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[scopeID] = sess
	return nil
}

func (m *MemoryTokenStore) Get(_ context.Context, scopeID string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[scopeID]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, scopeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, scopeID)
	return nil
}

// MemoryNotifier delivers events synchronously to in-process subscribers.
type MemoryNotifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]func(domainauth.SessionEventType)
	Published []domainauth.SessionEventType
}

func (n *MemoryNotifier) Publish(_ context.Context, scopeID string, evt domainauth.SessionEventType) error {
	n.mu.Lock()
	n.Published = append(n.Published, evt)
	fns := make([]func(domainauth.SessionEventType), 0, len(n.listeners[scopeID]))
	for _, fn := range n.listeners[scopeID] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(evt)
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(_ context.Context, scopeID string, fn func(domainauth.SessionEventType)) (ports.Subscription, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = map[string]map[int]func(domainauth.SessionEventType){}
	}
	if n.listeners[scopeID] == nil {
		n.listeners[scopeID] = map[int]func(domainauth.SessionEventType){}
	}
	n.nextID++
	id := n.nextID
	n.listeners[scopeID][id] = fn
	return SubscriptionFunc(func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners[scopeID], id)
	}), nil
}

// MemoryProfiles is an in-memory ProfileRepository keyed by user ID.
type MemoryProfiles struct {
	mu   sync.Mutex
	Rows map[string]domainauth.RawProfileRecord
}

func (p *MemoryProfiles) QueryProfile(_ context.Context, userID string) (domainauth.RawProfileRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.Rows[userID]
	if !ok {
		return nil, apperrors.NotFound("profile not found")
	}
	return row, nil
}
