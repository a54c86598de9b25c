package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
)

func TestWantsJSON(t *testing.T) {
	cases := map[string]bool{
		"application/json":                 true,
		"application/json, text/plain":     true,
		"text/html,application/json;q=0.9": false,
		"":                                 false,
		"text/html,application/xhtml+xml":  false,
	}
	for accept, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", accept)
		assert.Equal(t, want, WantsJSON(req), accept)
	}
}

func TestRedirect(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	Redirect(rec, req, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	req.Header.Set("Hx-Request", "true")
	rec = httptest.NewRecorder()
	Redirect(rec, req, "/dashboard")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Hx-Redirect"))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestSetHXTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHXTrigger(rec, "promoClaimed", nil)
	assert.JSONEq(t, `{"promoClaimed":true}`, rec.Header().Get("Hx-Trigger"))

	rec = httptest.NewRecorder()
	SetHXTrigger(rec, "promoClaimed", map[string]int{"id": 3})
	assert.JSONEq(t, `{"promoClaimed":{"id":3}}`, rec.Header().Get("Hx-Trigger"))
}

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", apperrors.NotFound("Promo Tidak Ditemukan"), http.StatusNotFound,
			`{"error":"not_found","message":"Promo Tidak Ditemukan"}`},
		{"field validation", apperrors.ValidationField("email", "Email tidak valid"), http.StatusUnprocessableEntity,
			`{"error":"validation","message":"Email tidak valid","field":"email"}`},
		{"plain error hides cause", errors.New("pq: relation missing"), http.StatusInternalServerError,
			`{"error":"internal","message":"Gagal"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tc.err, "Gagal")
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}
