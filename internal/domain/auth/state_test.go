package auth

import "testing"

func TestAuthState_Constructors(t *testing.T) {
	if s := InitialState(); !s.IsLoading || s.IsAuthenticated || s.User != nil {
		t.Fatalf("unexpected initial state: %+v", s)
	}
	if s := SignedOutState(); s.IsLoading || s.IsAuthenticated || s.User != nil {
		t.Fatalf("unexpected signed-out state: %+v", s)
	}
	u := &CustomerUser{BaseUser: BaseUser{ID: "c"}}
	s := SignedInState(u)
	if !s.IsAuthenticated || s.User == nil || s.IsLoading {
		t.Fatalf("unexpected signed-in state: %+v", s)
	}
	if r, ok := s.Role(); !ok || r != RoleCustomer {
		t.Fatalf("role = %q, %v", r, ok)
	}
	if SignedInState(nil).IsAuthenticated {
		t.Fatalf("nil user must not authenticate")
	}
}

func TestAuthState_Normalize(t *testing.T) {
	broken := AuthState{IsAuthenticated: true}
	if broken.Consistent() {
		t.Fatalf("expected inconsistent state")
	}
	if n := broken.Normalize(); !n.Consistent() || n.IsAuthenticated {
		t.Fatalf("normalize failed: %+v", n)
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{"customer": RoleCustomer, " Workshop ": RoleWorkshop, "technician": RoleTechnician}
	for in, want := range cases {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("admin must not parse")
	}
}
