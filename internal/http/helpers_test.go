package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	mocks "github.com/bengkelink/bengkelink-web/internal/mocks/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// identityFixture hands out one FakeIdentityClient per scope, built by newClient.
type identityFixture struct {
	mu        sync.Mutex
	newClient func() *mocks.FakeIdentityClient
	clients   map[string]*mocks.FakeIdentityClient
}

func (f *identityFixture) factory(scopeID string) (ports.IdentityClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.newClient()
	f.clients[scopeID] = c
	return c, nil
}

func (f *identityFixture) client(scopeID string) *mocks.FakeIdentityClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[scopeID]
}

func newTestProvider(t *testing.T, newClient func() *mocks.FakeIdentityClient) (*service.AuthProvider, *identityFixture) {
	t.Helper()
	if newClient == nil {
		newClient = func() *mocks.FakeIdentityClient { return &mocks.FakeIdentityClient{} }
	}
	f := &identityFixture{newClient: newClient, clients: map[string]*mocks.FakeIdentityClient{}}
	p, err := service.NewAuthProvider(service.AuthProviderOptions{
		NewIdentity: f.factory,
		Controller: service.SessionControllerOptions{
			Retry:       service.RetryPolicy{MaxAttempts: 1},
			EmailDomain: "bengkelink.com",
		},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, f
}

func profileRow(userID string, role domainauth.Role) domainauth.RawProfileRecord {
	return domainauth.RawProfileRecord{
		"id":                  userID,
		"role":                string(role),
		"name":                "Budi Santoso",
		"phone":               "081234567890",
		"workshop_name":       "Bengkel Maju",
		"verification_status": "verified",
	}
}

// signedInClient returns a client whose scope bootstraps straight into role.
func signedInClient(role domainauth.Role) func() *mocks.FakeIdentityClient {
	return func() *mocks.FakeIdentityClient {
		return &mocks.FakeIdentityClient{
			GetSessionFunc: func(context.Context) (*domainauth.Session, error) {
				return &domainauth.Session{UserID: "u-" + string(role), Email: string(role) + "@example.com"}, nil
			},
			QueryProfileFunc: func(_ context.Context, userID string) (domainauth.RawProfileRecord, error) {
				return profileRow(userID, role), nil
			},
		}
	}
}

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return tr
}

var (
	errPromoNotFound = apperrors.NotFound("Promo Tidak Ditemukan")
	errPromoClaimed  = apperrors.Conflict("Promo sudah diklaim")
)

type fakePromos struct {
	views   map[int]service.PromoView
	claimed map[int]bool
	listErr error
}

func (f *fakePromos) List(context.Context, domainauth.User) ([]service.PromoView, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]service.PromoView, 0, len(f.views))
	for _, v := range f.views {
		v.Claimed = f.claimed[v.ID]
		out = append(out, v)
	}
	return out, nil
}

func (f *fakePromos) Get(_ context.Context, _ domainauth.User, id int) (service.PromoView, error) {
	v, ok := f.views[id]
	if !ok {
		return service.PromoView{}, errPromoNotFound
	}
	v.Claimed = f.claimed[id]
	return v, nil
}

func (f *fakePromos) Claim(ctx context.Context, u domainauth.User, id int) (service.PromoView, error) {
	v, err := f.Get(ctx, u, id)
	if err != nil {
		return v, err
	}
	if v.Claimed {
		return v, errPromoClaimed
	}
	if f.claimed == nil {
		f.claimed = map[int]bool{}
	}
	f.claimed[id] = true
	v.Claimed = true
	return v, nil
}

type routerOpt func(*RouterServices)

func newTestServer(t *testing.T, p ScopeMounter, opts ...routerOpt) *httptest.Server {
	t.Helper()
	s := RouterServices{
		Provider:   p,
		GuardWait:  2 * time.Second,
		SessionTTL: time.Hour,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	}
	for _, o := range opts {
		o(&s)
	}
	h, err := NewRouter(s)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	csrf   string
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCSRFCookieName {
			b.csrf = c.Value
		}
	}
	return resp, string(body)
}

func (b *browser) get(path string, header ...string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return b.do(req)
}

// postForm submits an urlencoded form carrying the CSRF token. A GET primes the cookies
// first when the browser has none.
func (b *browser) postForm(path string, form map[string]string, header ...string) (*http.Response, string) {
	b.t.Helper()
	if b.csrf == "" {
		b.get("/auth/status")
	}
	vals := url.Values{}
	for k, v := range form {
		vals.Set(k, v)
	}
	vals.Set(DefaultCSRFCookieName, b.csrf)
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(vals.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return b.do(req)
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}
