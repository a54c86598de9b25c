package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	bengkelink "github.com/bengkelink/bengkelink-web"
	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Provider ScopeMounter
	Promos   PromoReader
	// Uploads is optional; without it signup ignores file fields.
	Uploads *service.SignupUploader

	CookieName    string
	CookieDomain  string
	SecureCookies bool
	SessionTTL    time.Duration
	GuardWait     time.Duration

	MaxUploadBytes int64
	// UploadsDir is served at UploadsPath when set (local disk storage).
	UploadsDir  string
	UploadsPath string

	HealthChecks map[string]HealthCheck
	// Metrics is optional; nil disables auth and promo metrics.
	Metrics statsd.Sink

	// TemplateFS overrides the template source; tests use it.
	TemplateFS fs.FS
	IsDev      bool
	Logger     *slog.Logger
}

// NewRouter builds the application handler. Process-level middleware (recover, logging,
// compression) is applied by the caller.
func NewRouter(s RouterServices) (http.Handler, error) {
	if s.Provider == nil {
		return nil, errors.New("scope provider is required")
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(s),
		DevMode:    s.IsDev,
		Logger:     s.Logger,
	})
	if err != nil {
		return nil, err
	}
	if s.GuardWait <= 0 {
		s.GuardWait = DefaultGuardWait
	}
	maxUpload := s.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxUploadBytes
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	mux.Handle("GET /readyz", readyHandler(s.HealthChecks))
	mux.Handle("GET /static/", staticHandler(s.IsDev, s.Logger))
	if s.UploadsDir != "" && s.UploadsPath != "" {
		mux.Handle("GET "+s.UploadsPath, http.StripPrefix(s.UploadsPath, http.FileServerFS(os.DirFS(s.UploadsDir))))
	}

	auth := &AuthHandlers{
		T:              tr,
		Uploads:        s.Uploads,
		MaxUploadBytes: maxUpload,
		SettleWait:     s.GuardWait,
		Metrics:        s.Metrics,
		Logger:         s.Logger,
	}
	dash := &DashboardHandlers{T: tr, Promos: s.Promos, Metrics: s.Metrics, Logger: s.Logger}
	guard := GuardConfig{Wait: s.GuardWait, Renderer: tr, Logger: s.Logger}

	app := http.NewServeMux()
	registerAuthRoutes(app, auth)
	registerDashboardRoutes(app, dash, guard)
	app.Handle("/", notFoundHandler(tr, s.Logger))

	scoped := AuthScope(AuthScopeConfig{
		Provider:     s.Provider,
		CookieName:   s.CookieName,
		CookieDomain: s.CookieDomain,
		Secure:       s.SecureCookies,
		TTL:          s.SessionTTL,
		Logger:       s.Logger,
	})
	csrf := CSRFProtection(CSRFConfig{
		CookieDomain:       s.CookieDomain,
		Secure:             s.SecureCookies,
		MaxMultipartMemory: maxUpload,
	})
	// Two files per signup plus form fields.
	mux.Handle("/", LimitBody(2*maxUpload+(1<<20))(scoped(csrf(app))))
	return mux, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /{$}", h.LoginPage)
	mux.HandleFunc("GET /signup", h.SignupPage)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/callback", h.Callback)
}

func registerDashboardRoutes(mux *http.ServeMux, h *DashboardHandlers, guard GuardConfig) {
	only := func(role domainauth.Role, fn http.HandlerFunc) http.Handler {
		return RouteGuard(guard, role)(fn)
	}
	anyRole := RouteGuard(guard)

	mux.Handle("GET "+PathCustomerDashboard, only(domainauth.RoleCustomer, h.Customer))
	mux.Handle("GET "+PathWorkshopDashboard, only(domainauth.RoleWorkshop, h.Workshop))
	mux.Handle("GET "+PathTechnicianDashboard, only(domainauth.RoleTechnician, h.Technician))
	mux.Handle("GET /promo/{promoID}", anyRole(http.HandlerFunc(h.PromoDetail)))
	mux.Handle("POST /promo/{promoID}/claim", anyRole(http.HandlerFunc(h.PromoClaim)))
}

func notFoundHandler(tr *TemplateRenderer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if WantsJSON(r) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Message: "Halaman tidak ditemukan"})
			return
		}
		st := AuthStateFrom(r.Context())
		back := PathHome
		if role, ok := st.Role(); ok {
			back = DashboardPath(role)
		}
		data := NewTemplateData(r, PageMeta{Title: "Halaman Tidak Ditemukan", CurrentPage: PageNotFound}).
			With("Heading", "Halaman Tidak Ditemukan").
			With("BackPath", back).
			Build()
		if err := tr.Page(w, r, http.StatusNotFound, data); err != nil {
			logger.ErrorContext(r.Context(), "render not found page", "error", err)
		}
	})
}

func templateFS(s RouterServices) fs.FS {
	if s.TemplateFS != nil {
		return s.TemplateFS
	}
	if s.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(bengkelink.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		s.Logger.Warn("embedded templates unavailable; reading from disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// staticHandler serves /static/ from disk in dev mode and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var fsys fs.FS = os.DirFS(StaticPathFromRoot)
	if !isDev {
		sub, err := fs.Sub(bengkelink.StaticFS, StaticPathFromRoot)
		if err != nil {
			logger.Warn("embedded static assets unavailable; reading from disk", "error", err)
		} else {
			fsys = sub
		}
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServerFS(fsys)))
}

// hashedAsset matches content-hashed names such as app.abc12345.css.
var hashedAsset = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

func staticWithCacheHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedAsset.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		next.ServeHTTP(w, r)
	})
}
