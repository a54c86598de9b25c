package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/observability/metrics"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// AuthHandlers serves login, signup, logout and the auth status endpoint.
type AuthHandlers struct {
	T *TemplateRenderer
	// Uploads stores signup files; nil disables file fields.
	Uploads        *service.SignupUploader
	MaxUploadBytes int64
	// SettleWait bounds how long the entry page waits for a loading scope before showing the form.
	SettleWait time.Duration
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// LoginPage is the public entry point. A settled, signed-in scope goes to its dashboard.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	ctrl := MustSessionController(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), h.SettleWait)
	st, _ := ctrl.Store().Wait(ctx)
	cancel()
	if role, ok := st.Role(); ok && !st.IsLoading {
		Redirect(w, r, DashboardPath(role))
		return
	}

	role, ok := domainauth.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		role = domainauth.RoleCustomer
	}
	h.renderLogin(w, r, http.StatusOK, loginView{Role: role})
}

type loginView struct {
	Role              domainauth.Role
	Email             string
	PartnershipNumber string
	Error             string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, v loginView) {
	data := NewTemplateData(r, PageMeta{Title: "Masuk", CurrentPage: PageLogin}).
		WithError(v.Error).
		With("Form", v).
		With("Roles", domainauth.Roles).
		Build()
	if err := h.T.Page(w, r, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render login page", "error", err)
	}
}

type loginResponse struct {
	domainauth.LoginResult
	Redirect string `json:"redirect,omitempty"`
}

// Login signs the scope in and sends the user to their role's dashboard.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	ctrl := MustSessionController(r.Context())
	creds, err := parseLoginForm(r)
	if err != nil {
		WriteAppError(w, err, "Form tidak valid")
		return
	}

	start := time.Now()
	res := ctrl.Login(r.Context(), creds)
	metrics.EmitLogin(h.Metrics, metrics.AuthMetric{
		Role: string(creds.Role), Success: res.Success, Kind: string(res.Kind), Duration: time.Since(start),
	})
	status := loginStatus(res)
	if WantsJSON(r) {
		out := loginResponse{LoginResult: res}
		if res.Success {
			out.Redirect = DashboardPath(res.Role)
		}
		WriteJSON(w, status, out)
		return
	}
	if res.Success {
		Redirect(w, r, DashboardPath(res.Role))
		return
	}
	h.renderLogin(w, r, status, loginView{
		Role:              creds.Role,
		Email:             creds.Email,
		PartnershipNumber: creds.PartnershipNumber,
		Error:             res.Error,
	})
}

func loginStatus(res domainauth.LoginResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Kind {
	case domainauth.FailureValidation:
		return http.StatusUnprocessableEntity
	case domainauth.FailureProvider:
		return http.StatusUnauthorized
	case domainauth.FailureProfileLoad:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// SignupPage renders the registration form for the selected role.
func (h *AuthHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	role, ok := domainauth.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		role = domainauth.RoleCustomer
	}
	h.renderSignup(w, r, http.StatusOK, signupView{Role: role})
}

type signupView struct {
	Role        domainauth.Role
	Values      map[string]string
	FieldErrors map[string]string
	Error       string
}

func (h *AuthHandlers) renderSignup(w http.ResponseWriter, r *http.Request, status int, v signupView) {
	data := NewTemplateData(r, PageMeta{Title: "Daftar", CurrentPage: PageSignup}).
		WithError(v.Error).
		WithFieldErrors(v.FieldErrors).
		With("Form", v).
		With("Roles", domainauth.Roles).
		With("Days", operatingDays).
		With("UploadsEnabled", h.Uploads != nil).
		Build()
	if err := h.T.Page(w, r, status, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render signup page", "error", err)
	}
}

// Signup registers an account. Files are uploaded only once the form validates and are
// removed again if the identity backend rejects the signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	ctrl := MustSessionController(r.Context())
	maxMem := h.MaxUploadBytes
	if maxMem <= 0 {
		maxMem = service.DefaultMaxUploadBytes
	}

	data, err := parseSignupForm(r, maxMem)
	if err != nil {
		h.signupFailed(w, r, data.Role, domainauth.SignupResult{Error: apperrors.UserMessage(err, "Form tidak valid"), Kind: domainauth.FailureValidation})
		return
	}

	var staged *service.StagedUploads
	if h.Uploads != nil && service.ValidateSignup(data) == nil {
		files, closeFiles, ferr := signupFiles(r)
		if ferr == nil {
			staged, ferr = h.Uploads.Stage(r.Context(), files)
		}
		closeFiles()
		if ferr != nil {
			h.logger().WarnContext(r.Context(), "signup upload failed", "error", ferr)
			h.signupFailed(w, r, data.Role, domainauth.SignupResult{
				Error: apperrors.UserMessage(ferr, "Gagal mengunggah berkas. Silakan coba lagi."),
				Field: apperrors.GetField(ferr),
				Kind:  domainauth.FailureValidation,
			})
			return
		}
		staged.Apply(&data)
	}

	res := ctrl.Signup(r.Context(), data)
	metrics.EmitSignup(h.Metrics, metrics.AuthMetric{Role: string(data.Role), Success: res.Success, Kind: string(res.Kind)})
	if !res.Success {
		staged.Discard(r.Context())
		h.signupFailed(w, r, data.Role, res)
		return
	}

	if WantsJSON(r) {
		WriteJSON(w, http.StatusCreated, res)
		return
	}
	// The queued success notification tells the user to confirm their email.
	Redirect(w, r, PathHome+"?role="+string(data.Role))
}

func (h *AuthHandlers) signupFailed(w http.ResponseWriter, r *http.Request, role domainauth.Role, res domainauth.SignupResult) {
	status := http.StatusUnprocessableEntity
	switch res.Kind {
	case domainauth.FailureProvider:
		status = http.StatusBadRequest
	case domainauth.FailureUnexpected:
		status = http.StatusInternalServerError
	}
	if WantsJSON(r) {
		WriteJSON(w, status, res)
		return
	}
	if !role.Valid() {
		role = domainauth.RoleCustomer
	}
	v := signupView{Role: role, Values: signupFormValues(r), Error: res.Error}
	if res.Field != "" {
		v.FieldErrors = map[string]string{res.Field: res.Error}
	}
	h.renderSignup(w, r, status, v)
}

// Logout ends the scope's session. The scope is signed out even when the remote sign-out fails.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctrl := MustSessionController(r.Context())
	err := ctrl.Logout(r.Context())
	metrics.EmitLogout(h.Metrics, err)
	if err != nil {
		h.logger().WarnContext(r.Context(), "logout", "error", err)
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]bool{"success": err == nil})
		return
	}
	Redirect(w, r, PathHome)
}

type statusResponse struct {
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
	Role          domainauth.Role `json:"role,omitempty"`
	User          domainauth.User `json:"user"`
}

// Status reports the scope's auth state as JSON without waiting for it to settle.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st := MustSessionController(r.Context()).State()
	res := statusResponse{Authenticated: st.IsAuthenticated, Loading: st.IsLoading, User: st.User}
	if role, ok := st.Role(); ok {
		res.Role = role
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, res)
}

// Callback is the landing page linked from the signup confirmation email.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := NewTemplateData(r, PageMeta{Title: "Verifikasi Email", CurrentPage: PageCallback}).
		WithError(q.Get("error_description")).
		Build()
	if err := h.T.Page(w, r, http.StatusOK, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render callback page", "error", err)
	}
}
