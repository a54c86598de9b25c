package auth

// AuthState is the authentication view of one client scope.
// IsAuthenticated is always equal to User != nil; use the constructors to keep it that way.
// While IsLoading is true consumers must not treat User as authoritative.
type AuthState struct {
	User            User `json:"user"`
	IsAuthenticated bool `json:"isAuthenticated"`
	IsLoading       bool `json:"isLoading"`
}

// InitialState is the state of a freshly mounted scope, before the first session lookup settles.
func InitialState() AuthState {
	return AuthState{IsLoading: true}
}

// SignedOutState is the settled state with no user.
func SignedOutState() AuthState {
	return AuthState{}
}

// SignedInState is the settled state for an authenticated user. A nil user yields SignedOutState.
func SignedInState(u User) AuthState {
	if u == nil {
		return SignedOutState()
	}
	return AuthState{User: u, IsAuthenticated: true}
}

// WithLoading returns a copy of s with the loading flag set.
func (s AuthState) WithLoading(loading bool) AuthState {
	s.IsLoading = loading
	return s
}

// Normalize re-derives IsAuthenticated from User.
func (s AuthState) Normalize() AuthState {
	s.IsAuthenticated = s.User != nil
	return s
}

// Consistent reports whether the authentication invariant holds.
func (s AuthState) Consistent() bool {
	return s.IsAuthenticated == (s.User != nil)
}

// Role returns the authenticated user's role.
func (s AuthState) Role() (Role, bool) {
	if s.User == nil {
		return "", false
	}
	return s.User.Role(), true
}
