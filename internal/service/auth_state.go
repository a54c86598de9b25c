package service

import (
	"context"
	"sync"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// AuthStateStore is the single owned cell holding a scope's AuthState.
// Every write replaces the whole value and re-derives IsAuthenticated from User.
//
// Writers that run asynchronous flows take a token from BeginFlow and write with ReplaceIf
// or UpdateIf; a write from a flow that has since been superseded by a newer token is dropped.
// Only the flow holding the newest token may clear IsLoading.
type AuthStateStore struct {
	mu      sync.Mutex
	state   domainauth.AuthState
	token   uint64
	changed chan struct{}
}

// NewAuthStateStore returns a store holding domainauth.InitialState.
func NewAuthStateStore() *AuthStateStore {
	return &AuthStateStore{
		state:   domainauth.InitialState(),
		changed: make(chan struct{}),
	}
}

// Get returns the current state.
func (s *AuthStateStore) Get() domainauth.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginFlow takes a newer token and marks the state loading in one step.
func (s *AuthStateStore) BeginFlow() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	s.setLocked(s.state.WithLoading(true))
	return s.token
}

// Replace unconditionally stores next.
func (s *AuthStateStore) Replace(next domainauth.AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(next)
}

// ReplaceIf stores next only if token is still the newest. It reports whether the write applied.
func (s *AuthStateStore) ReplaceIf(token uint64, next domainauth.AuthState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return false
	}
	s.setLocked(next)
	return true
}

// Update replaces the state with fn applied to the current state, atomically.
func (s *AuthStateStore) Update(fn func(domainauth.AuthState) domainauth.AuthState) domainauth.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(fn(s.state))
	return s.state
}

// UpdateIf applies fn only if token is still the newest. It returns the resulting state
// and whether the write applied.
func (s *AuthStateStore) UpdateIf(token uint64, fn func(domainauth.AuthState) domainauth.AuthState) (domainauth.AuthState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return s.state, false
	}
	s.setLocked(fn(s.state))
	return s.state, true
}

// Wait blocks until the state is not loading or ctx is done, and returns the latest state.
func (s *AuthStateStore) Wait(ctx context.Context) (domainauth.AuthState, error) {
	for {
		s.mu.Lock()
		st, ch := s.state, s.changed
		s.mu.Unlock()
		if !st.IsLoading {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ch:
		}
	}
}

func (s *AuthStateStore) setLocked(next domainauth.AuthState) {
	s.state = next.Normalize()
	close(s.changed)
	s.changed = make(chan struct{})
}
