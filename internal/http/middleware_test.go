package httpx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	mocks "github.com/bengkelink/bengkelink-web/internal/mocks/auth"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func scopeCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == DefaultScopeCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", DefaultScopeCookieName)
	return nil
}

func TestAuthScope_AssignsAndReusesScope(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	var seen []string
	h := AuthScope(AuthScopeConfig{Provider: p, TTL: time.Hour, Logger: discardLogger()})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, ScopeIDFrom(r.Context()))
			_, ok := SessionControllerFrom(r.Context())
			assert.True(t, ok)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := scopeCookie(t, rec.Result())
	_, err := uuid.Parse(c.Value)
	require.NoError(t, err)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultScopeCookieName, Value: c.Value})
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, 1, p.Len())
}

func TestAuthScope_MalformedCookieStartsNewScope(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	h := AuthScope(AuthScopeConfig{Provider: p, Logger: discardLogger()})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultScopeCookieName, Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	c := scopeCookie(t, rec.Result())
	assert.NotEqual(t, "../../etc/passwd", c.Value)
	_, err := uuid.Parse(c.Value)
	assert.NoError(t, err)
}

func TestAuthScope_SecureBehindTLSProxy(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	h := AuthScope(AuthScopeConfig{Provider: p, Logger: discardLogger()})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "http, https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, scopeCookie(t, rec.Result()).Secure)
}

func TestAuthScope_ProviderClosed(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	p.Close()
	h := AuthScope(AuthScopeConfig{Provider: p, Logger: discardLogger()})(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func guarded(t *testing.T, newClient func() *mocks.FakeIdentityClient, cfg GuardConfig, roles ...domainauth.Role) http.Handler {
	t.Helper()
	p, _ := newTestProvider(t, newClient)
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return AuthScope(AuthScopeConfig{Provider: p, Logger: discardLogger()})(
		RouteGuard(cfg, roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := AuthStateFrom(r.Context())
			WriteJSON(w, http.StatusOK, map[string]any{"role": st.User.Role()})
		})))
}

func TestRouteGuard_RoleMatrix(t *testing.T) {
	cases := []struct {
		name     string
		user     domainauth.Role
		required []domainauth.Role
		want     int
	}{
		{"customer on customer route", domainauth.RoleCustomer, []domainauth.Role{domainauth.RoleCustomer}, http.StatusOK},
		{"workshop on customer route", domainauth.RoleWorkshop, []domainauth.Role{domainauth.RoleCustomer}, http.StatusForbidden},
		{"technician on workshop route", domainauth.RoleTechnician, []domainauth.Role{domainauth.RoleWorkshop}, http.StatusForbidden},
		{"technician on technician route", domainauth.RoleTechnician, []domainauth.Role{domainauth.RoleTechnician}, http.StatusOK},
		{"workshop on any-role route", domainauth.RoleWorkshop, nil, http.StatusOK},
		{"partner route admits both", domainauth.RoleTechnician, []domainauth.Role{domainauth.RoleWorkshop, domainauth.RoleTechnician}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := guarded(t, signedInClient(tc.user), GuardConfig{Wait: 2 * time.Second}, tc.required...)
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouteGuard_UnauthenticatedRedirectsHome(t *testing.T) {
	h := guarded(t, nil, GuardConfig{Wait: time.Second}, domainauth.RoleCustomer)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, PathHome, rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Hx-Request", "true")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, PathHome, rec.Header().Get("Hx-Redirect"))

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authentication_required", body.Error)
}

func TestRouteGuard_LoadingScope(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stuck := func() *mocks.FakeIdentityClient {
		return &mocks.FakeIdentityClient{
			GetSessionFunc: func(ctx context.Context) (*domainauth.Session, error) {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil, nil
			},
		}
	}

	t.Run("json", func(t *testing.T) {
		h := guarded(t, stuck, GuardConfig{Wait: 20 * time.Millisecond})
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), `"loading"`)
	})

	t.Run("html", func(t *testing.T) {
		h := guarded(t, stuck, GuardConfig{Wait: 20 * time.Millisecond, Renderer: newTestRenderer(t)})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?tab=promo", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Memuat sesi Anda")
		assert.Contains(t, body, "/dashboard?tab=promo")
	})
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			token = c.Value
			assert.False(t, c.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		}
	}
	require.NotEmpty(t, token)

	post := func(body, contentType, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if header != "" {
			req.Header.Set(DefaultCSRFHeaderName, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post("", "", ""), "missing token")
	assert.Equal(t, http.StatusForbidden, post("", "", "wrong"), "wrong header")
	assert.Equal(t, http.StatusOK, post("", "", token), "header token")
	assert.Equal(t, http.StatusOK, post("csrf_token="+token, "application/x-www-form-urlencoded", ""), "form token")
	assert.Equal(t, http.StatusForbidden, post("csrf_token=nope", "application/x-www-form-urlencoded", ""), "wrong form token")
	assert.Equal(t, http.StatusForbidden, post(`{"csrf_token":"`+token+`"}`, "application/json", ""), "json body is not read")
}

func TestCSRFProtection_MultipartToken(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The parsed form stays available to the handler.
		_, _ = io.WriteString(w, r.PostFormValue("name"))
	}))

	body := "--b\r\nContent-Disposition: form-data; name=\"csrf_token\"\r\n\r\ntok\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"name\"\r\n\r\nAni\r\n--b--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ani", rec.Body.String())
}

func TestCompression(t *testing.T) {
	big := strings.Repeat("bengkel ", 200)
	h := Compression(CompressionConfig{Logger: discardLogger()})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/png":
			w.Header().Set("Content-Type", "image/png")
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = io.WriteString(w, big)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br, gzip;q=0.8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, big, string(plain))

	req = httptest.NewRequest(http.MethodGet, "/png", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, big, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip;q=0")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestAcceptsGzip(t *testing.T) {
	assert.True(t, acceptsGzip("gzip"))
	assert.True(t, acceptsGzip("deflate, GZIP"))
	assert.True(t, acceptsGzip("gzip;q=0.5"))
	assert.False(t, acceptsGzip("gzip;q=0"))
	assert.False(t, acceptsGzip("br"))
	assert.False(t, acceptsGzip(""))
}

func TestRecover(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	abort := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestMustSessionController_OutsideAuthScope(t *testing.T) {
	_, ok := SessionControllerFrom(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustSessionController(context.Background()) })

	h := Recover(discardLogger())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		MustSessionController(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domainauth.SignedOutState(), AuthStateFrom(context.Background()))
}

func TestLimitBody(t *testing.T) {
	h := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLogging_RequestID(t *testing.T) {
	h := Logging(discardLogger())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestSafeRedirectPath(t *testing.T) {
	assert.Equal(t, "/dashboard", safeRedirectPath("/dashboard"))
	assert.Empty(t, safeRedirectPath("//evil.example"))
	assert.Empty(t, safeRedirectPath("https://evil.example"))
	assert.Empty(t, safeRedirectPath(`/\evil`))
	assert.Empty(t, safeRedirectPath(""))
}
