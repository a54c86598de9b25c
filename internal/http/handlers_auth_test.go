package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	mocks "github.com/bengkelink/bengkelink-web/internal/mocks/auth"
)

// accountDirectory backs login flows: every scope starts signed out and signs in against the
// same password table.
type accountDirectory struct {
	mu        sync.Mutex
	roles     map[string]domainauth.Role // email -> role
	lastEmail string
	signups   atomic.Int32
	signUpErr error
}

func (d *accountDirectory) client() *mocks.FakeIdentityClient {
	var current atomic.Pointer[domainauth.Session]
	return &mocks.FakeIdentityClient{
		GetSessionFunc: func(context.Context) (*domainauth.Session, error) {
			return current.Load(), nil
		},
		SignInWithPasswordFunc: func(_ context.Context, creds domainauth.PasswordCredentials) (*domainauth.Session, error) {
			d.mu.Lock()
			d.lastEmail = creds.Email
			role, ok := d.roles[creds.Email]
			d.mu.Unlock()
			if !ok || creds.Password != "rahasia123" {
				return nil, &domainauth.ProviderError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
			}
			s := &domainauth.Session{UserID: "u-" + string(role), Email: creds.Email}
			current.Store(s)
			return s, nil
		},
		QueryProfileFunc: func(_ context.Context, userID string) (domainauth.RawProfileRecord, error) {
			role, _ := domainauth.ParseRole(strings.TrimPrefix(userID, "u-"))
			return profileRow(userID, role), nil
		},
		SignUpFunc: func(context.Context, domainauth.SignUpRequest) (*domainauth.SignUpResult, error) {
			d.signups.Add(1)
			if d.signUpErr != nil {
				return nil, d.signUpErr
			}
			return &domainauth.SignUpResult{UserID: "new-user"}, nil
		},
		SignOutFunc: func(context.Context) error {
			current.Store(nil)
			return nil
		},
	}
}

func newDirectory() *accountDirectory {
	return &accountDirectory{roles: map[string]domainauth.Role{
		"ani@example.com":                 domainauth.RoleCustomer,
		"budi@example.com":                domainauth.RoleTechnician,
		"BKL-001@workshop.bengkelink.com": domainauth.RoleWorkshop,
	}}
}

func TestLogin_RedirectsToRoleDashboard(t *testing.T) {
	cases := []struct {
		name string
		form map[string]string
		want string
	}{
		{"customer", map[string]string{"role": "customer", "email": "ani@example.com", "password": "rahasia123"}, PathCustomerDashboard},
		{"technician", map[string]string{"role": "technician", "email": "budi@example.com", "password": "rahasia123"}, PathTechnicianDashboard},
		{"workshop by partnership number", map[string]string{"role": "workshop", "partnership_number": "BKL-001", "password": "rahasia123"}, PathWorkshopDashboard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := newDirectory()
			p, _ := newTestProvider(t, dir.client)
			b := newBrowser(t, newTestServer(t, p))

			resp, _ := b.postForm("/auth/login", tc.form)
			require.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tc.want, resp.Header.Get("Location"))

			// The dashboard now renders for this browser, and the entry page bounces to it.
			resp, body := b.get(tc.want)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, "Budi Santoso")

			resp, _ = b.get("/")
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tc.want, resp.Header.Get("Location"))
		})
	}
}

func TestLogin_WorkshopIdentifierUsesEmailDomain(t *testing.T) {
	dir := newDirectory()
	p, _ := newTestProvider(t, dir.client)
	b := newBrowser(t, newTestServer(t, p))

	b.postForm("/auth/login", map[string]string{"role": "workshop", "partnership_number": "BKL-001", "password": "rahasia123"})
	dir.mu.Lock()
	defer dir.mu.Unlock()
	assert.Equal(t, "BKL-001@workshop.bengkelink.com", dir.lastEmail)
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name     string
		form     map[string]string
		status   int
		kind     domainauth.FailureKind
		contains string
	}{
		{"missing password", map[string]string{"email": "ani@example.com"}, http.StatusUnprocessableEntity, domainauth.FailureValidation, "password diperlukan"},
		{"wrong password", map[string]string{"email": "ani@example.com", "password": "salah"}, http.StatusUnauthorized, domainauth.FailureProvider, "password salah"},
		{"unknown account", map[string]string{"email": "x@example.com", "password": "rahasia123"}, http.StatusUnauthorized, domainauth.FailureProvider, "password salah"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newTestProvider(t, newDirectory().client)
			b := newBrowser(t, newTestServer(t, p))

			resp, body := b.postForm("/auth/login", tc.form, "Accept", "application/json")
			require.Equal(t, tc.status, resp.StatusCode)
			var res loginResponse
			require.NoError(t, json.Unmarshal([]byte(body), &res))
			assert.False(t, res.Success)
			assert.Equal(t, tc.kind, res.Kind)
			assert.Contains(t, res.Error, tc.contains)
			assert.Empty(t, res.Redirect)

			// The HTML form is re-rendered with the message and the email kept.
			resp, body = b.postForm("/auth/login", tc.form)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, body, tc.contains)
		})
	}
}

func TestLogin_JSONSuccess(t *testing.T) {
	p, _ := newTestProvider(t, newDirectory().client)
	b := newBrowser(t, newTestServer(t, p))

	resp, body := b.postForm("/auth/login",
		map[string]string{"email": "budi@example.com", "password": "rahasia123"},
		"Accept", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res loginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.True(t, res.Success)
	assert.Equal(t, domainauth.RoleTechnician, res.Role)
	assert.Equal(t, PathTechnicianDashboard, res.Redirect)
}

func TestLogin_RequiresCSRFToken(t *testing.T) {
	p, _ := newTestProvider(t, newDirectory().client)
	srv := newTestServer(t, p)

	resp, err := http.Post(srv.URL+"/auth/login", "application/x-www-form-urlencoded",
		strings.NewReader("email=ani@example.com&password=rahasia123"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStatus_ReportsScopeState(t *testing.T) {
	p, _ := newTestProvider(t, newDirectory().client)
	b := newBrowser(t, newTestServer(t, p))

	var st struct {
		Authenticated bool            `json:"authenticated"`
		Loading       bool            `json:"loading"`
		Role          domainauth.Role `json:"role"`
	}
	waitFor(t, func() bool {
		_, body := b.get("/auth/status")
		return json.Unmarshal([]byte(body), &st) == nil && !st.Loading
	})
	assert.False(t, st.Authenticated)

	b.postForm("/auth/login", map[string]string{"email": "ani@example.com", "password": "rahasia123"})
	resp, body := b.get("/auth/status")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.True(t, st.Authenticated)
	assert.Equal(t, domainauth.RoleCustomer, st.Role)
}

func TestLogout_SignsScopeOut(t *testing.T) {
	p, _ := newTestProvider(t, newDirectory().client)
	b := newBrowser(t, newTestServer(t, p))

	b.postForm("/auth/login", map[string]string{"email": "ani@example.com", "password": "rahasia123"})
	resp, _ := b.postForm("/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, PathHome, resp.Header.Get("Location"))

	// The logout notification shows on the next page and the dashboard is closed again.
	resp, body := b.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logout Berhasil")

	resp, _ = b.get(PathCustomerDashboard)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, PathHome, resp.Header.Get("Location"))
}

func TestLogout_RemoteFailureStillClearsScope(t *testing.T) {
	dir := newDirectory()
	p, _ := newTestProvider(t, func() *mocks.FakeIdentityClient {
		c := dir.client()
		c.SignOutFunc = func(context.Context) error { return errors.New("network down") }
		return c
	})
	b := newBrowser(t, newTestServer(t, p))

	b.postForm("/auth/login", map[string]string{"email": "ani@example.com", "password": "rahasia123"})
	resp, body := b.postForm("/auth/logout", nil, "Accept", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":false}`, body)

	_, body = b.get("/auth/status")
	assert.Contains(t, body, `"authenticated":false`)
}

func signupForm(role string) map[string]string {
	return map[string]string{
		"role":             role,
		"name":             "Citra Lestari",
		"email":            "citra@example.com",
		"phone":            "081298765432",
		"password":         "rahasia123",
		"confirm_password": "rahasia123",
		"terms_accepted":   "on",
	}
}

func TestSignup_Success(t *testing.T) {
	dir := newDirectory()
	p, _ := newTestProvider(t, dir.client)
	b := newBrowser(t, newTestServer(t, p))

	resp, _ := b.postForm("/auth/signup", signupForm("technician"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?role=technician", resp.Header.Get("Location"))
	assert.Equal(t, int32(1), dir.signups.Load())

	// Signing up never signs in; the confirmation notice waits on the entry page.
	resp, body := b.get("/?role=technician")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Pendaftaran berhasil")
}

func TestSignup_ValidationKeepsValues(t *testing.T) {
	dir := newDirectory()
	p, _ := newTestProvider(t, dir.client)
	b := newBrowser(t, newTestServer(t, p))

	form := signupForm("customer")
	form["confirm_password"] = "berbeda123"
	resp, body := b.postForm("/auth/signup", form)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Konfirmasi password tidak cocok")
	assert.Contains(t, body, `value="citra@example.com"`)
	assert.NotContains(t, body, "rahasia123")
	assert.Equal(t, int32(0), dir.signups.Load())
}

func TestSignup_ProviderRejection(t *testing.T) {
	dir := newDirectory()
	dir.signUpErr = &domainauth.ProviderError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	p, _ := newTestProvider(t, dir.client)
	b := newBrowser(t, newTestServer(t, p))

	resp, body := b.postForm("/auth/signup", signupForm("customer"), "Accept", "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var res domainauth.SignupResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.False(t, res.Success)
	assert.Equal(t, domainauth.FailureProvider, res.Kind)
	assert.NotEmpty(t, res.Error)
}

func TestSignupPage_RoleSections(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	b := newBrowser(t, newTestServer(t, p))

	_, body := b.get("/signup?role=workshop")
	assert.Contains(t, body, `name="workshop_name"`)
	assert.Contains(t, body, `name="hours_senin_open"`)

	_, body = b.get("/signup?role=technician")
	assert.Contains(t, body, `name="ktp_number"`)
	assert.NotContains(t, body, `name="workshop_name"`)

	_, body = b.get("/signup?role=bogus")
	assert.Contains(t, body, `value="customer"`)
}

func TestLoginPage_RoleTabs(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	b := newBrowser(t, newTestServer(t, p))

	resp, body := b.get("/?role=workshop")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="partnership_number"`)
	assert.NotContains(t, body, `name="email"`)

	_, body = b.get("/")
	assert.Contains(t, body, `name="email"`)
}

func TestCallback_ShowsProviderError(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	b := newBrowser(t, newTestServer(t, p))

	_, body := b.get("/auth/callback?error_description=Email+link+is+invalid")
	assert.Contains(t, body, "Email link is invalid")

	_, body = b.get("/auth/callback")
	assert.Contains(t, body, "Email Terverifikasi")
}
