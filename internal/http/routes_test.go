package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter_RequiresProvider(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	require.Error(t, err)
}

func TestHealthz(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	srv := newTestServer(t, p)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "health checks do not mount scopes")
	assert.Equal(t, 0, p.Len())
}

func TestReadyz(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	checks := map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}
	srv := newTestServer(t, p, func(s *RouterServices) { s.HealthChecks = checks })

	get := func() (int, map[string]any) {
		resp, err := http.Get(srv.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	status, body := get()
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	checks["redis"] = func(context.Context) error { return errors.New("connection refused") }
	status, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "connection refused"}, body["checks"])
}

func TestNotFound(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	b := newBrowser(t, newTestServer(t, p))

	resp, body := b.get("/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Halaman Tidak Ditemukan")

	resp, body = b.get("/nope", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"not_found"`)

	// Method mismatches on app routes fall through to the catch-all.
	resp, _ = b.get("/auth/logout")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFound_BackLinkFollowsRole(t *testing.T) {
	b := dashboardServer(t, "workshop", nil)
	b.get(PathWorkshopDashboard)
	// The catch-all has no route guard; the role comes from the scope's controller.
	_, body := b.get("/nope")
	assert.Contains(t, body, `class="btn btn-primary" href="`+PathWorkshopDashboard+`">Kembali`)

	p, _ := newTestProvider(t, nil)
	anon := newBrowser(t, newTestServer(t, p))
	_, body = anon.get("/nope")
	assert.Contains(t, body, `class="btn btn-primary" href="/">Kembali`)
}

func TestStaticAssets(t *testing.T) {
	p, _ := newTestProvider(t, nil)
	srv := newTestServer(t, p)

	resp, err := http.Get(srv.URL + "/static/css/app.css")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Cookies())
}

func TestStaticCacheHeaders(t *testing.T) {
	h := staticWithCacheHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/app.1a2b3c4d.js", nil))
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestUploadsServedFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ktp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ktp", "a.png"), []byte("png"), 0o600))

	p, _ := newTestProvider(t, nil)
	srv := newTestServer(t, p, func(s *RouterServices) {
		s.UploadsDir = dir
		s.UploadsPath = "/uploads/"
	})

	resp, err := http.Get(srv.URL + "/uploads/ktp/a.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
