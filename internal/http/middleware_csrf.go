package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the default name for the CSRF cookie and form field.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the header htmx sends the token in (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"

	csrfTokenBytes      = 32
	csrfCookieMaxAge    = 12 * 60 * 60
	defaultMultipartMem = 8 << 20
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	CookieDomain string
	Secure       bool
	// MaxMultipartMemory bounds in-memory parsing of multipart bodies when looking for the
	// form token. The parsed form stays on the request for the handler.
	MaxMultipartMemory int64
}

// CSRFProtection implements the double-submit cookie pattern. A random token lives in a
// cookie readable by scripts; unsafe methods must echo it in the header or the form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.MaxMultipartMemory <= 0 {
		cfg.MaxMultipartMemory = defaultMultipartMem
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				var err error
				if token, err = newCSRFToken(); err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					HttpOnly: false, // htmx reads it to fill the header
					Secure:   cfg.Secure || r.TLS != nil || isForwardedHTTPS(r),
					SameSite: http.SameSiteStrictMode,
					MaxAge:   csrfCookieMaxAge,
				})
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))
			if requiresCSRFValidation(r.Method) && !validCSRFToken(r, token, cfg) {
				if WantsJSON(r) {
					WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Message: "CSRF token validation failed"})
					return
				}
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// newCSRFToken fails closed: no predictable fallback token.
func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validCSRFToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}
	if h := r.Header.Get(cfg.HeaderName); h != "" {
		return subtle.ConstantTimeCompare([]byte(h), []byte(cookieToken)) == 1
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return false
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(cfg.MaxMultipartMemory); err != nil {
			return false
		}
	default:
		return false
	}
	formToken := r.PostFormValue(cfg.CookieName)
	return formToken != "" && subtle.ConstantTimeCompare([]byte(formToken), []byte(cookieToken)) == 1
}

type csrfTokenKey struct{}

// CSRFToken returns the request's CSRF token for templates and forms.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return strings.TrimSpace(token)
}
