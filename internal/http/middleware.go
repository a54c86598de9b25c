package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			if strings.HasPrefix(r.URL.Path, "/static/") && ww.status < http.StatusBadRequest {
				return
			}
			logger.Info("http",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && n > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ScopeMounter hands out the session controller for a client scope.
type ScopeMounter interface {
	Mount(ctx context.Context, scopeID string) (*service.SessionController, error)
}

var _ ScopeMounter = (*service.AuthProvider)(nil)

// AuthScopeConfig configures AuthScope.
type AuthScopeConfig struct {
	Provider     ScopeMounter
	CookieName   string
	CookieDomain string
	// Secure forces the Secure cookie attribute; otherwise it follows the request scheme.
	Secure bool
	TTL    time.Duration
	Logger *slog.Logger
}

// DefaultScopeCookieName names the cookie holding the client scope id.
const DefaultScopeCookieName = "bengkelink_client"

// AuthScope identifies the browser by a client cookie, mounts its session controller and puts
// the controller on the request context. A missing or malformed cookie starts a new scope.
func AuthScope(cfg AuthScopeConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultScopeCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopeID := scopeIDFromCookie(r, cfg.CookieName)
			if scopeID == "" {
				scopeID = uuid.NewString()
			}
			// Refresh the cookie on every request so active clients keep their scope.
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    scopeID,
				Path:     "/",
				Domain:   cfg.CookieDomain,
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure || r.TLS != nil || isForwardedHTTPS(r),
				SameSite: http.SameSiteLaxMode,
			})

			ctrl, err := cfg.Provider.Mount(r.Context(), scopeID)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, service.ErrProviderClosed) {
					status = http.StatusServiceUnavailable
				}
				cfg.Logger.ErrorContext(r.Context(), "mount client scope", "error", err)
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSessionController(r.Context(), scopeID, ctrl)))
		})
	}
}

func scopeIDFromCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// GuardConfig configures RouteGuard.
type GuardConfig struct {
	// Wait bounds how long a request waits for a loading scope to settle before the
	// loading page is served instead.
	Wait     time.Duration
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

// DefaultGuardWait is used when GuardConfig.Wait is zero.
const DefaultGuardWait = 3 * time.Second

// RouteGuard admits only settled, authenticated scopes whose user has one of roles.
// No roles means any authenticated user. While the scope is loading the loading page is
// rendered; unauthenticated and wrong-role requests are sent to the entry page.
func RouteGuard(cfg GuardConfig, roles ...domainauth.Role) func(http.Handler) http.Handler {
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultGuardWait
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctrl := MustSessionController(r.Context())
			wctx, cancel := context.WithTimeout(r.Context(), cfg.Wait)
			st, _ := ctrl.Store().Wait(wctx)
			cancel()

			switch {
			case st.IsLoading:
				renderLoading(w, r, cfg)
				return
			case !st.IsAuthenticated:
				guardDeny(w, r, http.StatusUnauthorized, "authentication_required")
				return
			case len(roles) > 0 && !slices.Contains(roles, st.User.Role()):
				cfg.Logger.InfoContext(r.Context(), "role mismatch",
					"path", r.URL.Path, "role", st.User.Role(), "required", roles)
				guardDeny(w, r, http.StatusForbidden, "insufficient_permissions")
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuthState(r.Context(), st)))
		})
	}
}

func guardDeny(w http.ResponseWriter, r *http.Request, status int, code string) {
	if WantsJSON(r) {
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Message: http.StatusText(status)})
		return
	}
	Redirect(w, r, PathHome)
}

func renderLoading(w http.ResponseWriter, r *http.Request, cfg GuardConfig) {
	w.Header().Set("Retry-After", "1")
	if WantsJSON(r) || cfg.Renderer == nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "loading", Message: "Memuat sesi..."})
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Memuat", CurrentPage: PageLoading}).
		With("RetryPath", safeRedirectPath(r.URL.RequestURI())).
		Build()
	if err := cfg.Renderer.Page(w, r, http.StatusOK, data); err != nil {
		cfg.Logger.ErrorContext(r.Context(), "render loading page", "error", err)
	}
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// safeRedirectPath keeps redirects inside the app: only absolute paths, never
// scheme-relative or backslash tricks.
func safeRedirectPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return ""
	}
	return p
}
