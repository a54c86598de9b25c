package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	apperrors "github.com/bengkelink/bengkelink-web/internal/errors"
	"github.com/bengkelink/bengkelink-web/internal/observability/metrics"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// PromoReader is the promo service as the UI uses it.
type PromoReader interface {
	List(ctx context.Context, user domainauth.User) ([]service.PromoView, error)
	Get(ctx context.Context, user domainauth.User, promoID int) (service.PromoView, error)
	Claim(ctx context.Context, user domainauth.User, promoID int) (service.PromoView, error)
}

var _ PromoReader = (*service.PromoService)(nil)

// DashboardHandlers serves the role dashboards and promo pages. Every route is behind RouteGuard.
type DashboardHandlers struct {
	T       *TemplateRenderer
	Promos  PromoReader
	Metrics statsd.Sink
	Logger  *slog.Logger
}

func (h *DashboardHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *DashboardHandlers) render(w http.ResponseWriter, r *http.Request, status int, b *TemplateDataBuilder) {
	if err := h.T.Page(w, r, status, b.Build()); err != nil {
		h.logger().ErrorContext(r.Context(), "render page", "error", err)
	}
}

// Customer renders the customer dashboard with the promo list.
func (h *DashboardHandlers) Customer(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context()).(*domainauth.CustomerUser)
	if !ok {
		Redirect(w, r, PathHome)
		return
	}
	b := NewTemplateData(r, PageMeta{Title: "Dashboard", CurrentPage: PageCustomerDashboard}).
		With("Customer", user)

	if h.Promos != nil {
		promos, err := h.Promos.List(r.Context(), user)
		if err != nil {
			h.logger().ErrorContext(r.Context(), "list promos", "user_id", user.ID, "error", err)
			b.WithError("Gagal memuat promo")
		}
		b.With("Promos", promos)
	}
	h.render(w, r, http.StatusOK, b)
}

// Workshop renders the workshop partner dashboard.
func (h *DashboardHandlers) Workshop(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context()).(*domainauth.WorkshopUser)
	if !ok {
		Redirect(w, r, PathHome)
		return
	}
	h.render(w, r, http.StatusOK,
		NewTemplateData(r, PageMeta{Title: "Dashboard Bengkel", CurrentPage: PageWorkshopDashboard}).
			With("Workshop", user))
}

// Technician renders the technician dashboard.
func (h *DashboardHandlers) Technician(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context()).(*domainauth.TechnicianUser)
	if !ok {
		Redirect(w, r, PathHome)
		return
	}
	h.render(w, r, http.StatusOK,
		NewTemplateData(r, PageMeta{Title: "Dashboard Teknisi", CurrentPage: PageTechnicianDashboard}).
			With("Technician", user))
}

func promoID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("promoID"))
	return id, err == nil && id > 0
}

// PromoDetail shows one promo with the user's eligibility and claim state.
func (h *DashboardHandlers) PromoDetail(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	id, ok := promoID(r)
	var view service.PromoView
	var err error = apperrors.NotFound("Promo Tidak Ditemukan")
	if ok {
		view, err = h.Promos.Get(r.Context(), user, id)
	}
	if err != nil {
		if WantsJSON(r) {
			WriteAppError(w, err, "Gagal memuat promo")
			return
		}
		h.renderPromoError(w, r, err)
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, promoResponse(view))
		return
	}
	h.render(w, r, http.StatusOK,
		NewTemplateData(r, PageMeta{Title: view.Title, CurrentPage: PagePromo}).
			With("Promo", view).
			With("BackPath", DashboardPath(user.Role())))
}

// PromoClaim records the user's claim and returns to the promo page with a notification.
func (h *DashboardHandlers) PromoClaim(w http.ResponseWriter, r *http.Request) {
	ctrl := MustSessionController(r.Context())
	user := CurrentUser(r.Context())
	id, ok := promoID(r)
	var view service.PromoView
	var err error = apperrors.NotFound("Promo Tidak Ditemukan")
	if ok {
		view, err = h.Promos.Claim(r.Context(), user, id)
	}
	metrics.EmitPromoClaim(h.Metrics, claimOutcome(err), err)

	if WantsJSON(r) {
		if err != nil {
			WriteAppError(w, err, "Gagal mengklaim promo")
			return
		}
		WriteJSON(w, http.StatusOK, promoResponse(view))
		return
	}

	switch {
	case err == nil:
		ctrl.Notifications().Push(service.Notification{
			Kind: service.NotificationDefault, Title: "Promo Diklaim",
			Message: "Kode promo " + view.Code + " siap digunakan",
		})
	case apperrors.IsNotFound(err):
		h.renderPromoError(w, r, err)
		return
	case apperrors.IsConflict(err):
		ctrl.Notifications().Push(service.Notification{
			Kind: service.NotificationDestructive, Title: "Sudah Diklaim",
			Message: apperrors.UserMessage(err, "Promo sudah diklaim"),
		})
	default:
		if !apperrors.IsValidation(err) {
			h.logger().ErrorContext(r.Context(), "claim promo", "promo_id", id, "error", err)
		}
		ctrl.Notifications().Push(service.Notification{
			Kind: service.NotificationDestructive, Title: "Gagal Mengklaim",
			Message: apperrors.UserMessage(err, "Gagal mengklaim promo"),
		})
	}
	Redirect(w, r, "/promo/"+strconv.Itoa(id))
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return "claimed"
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsConflict(err):
		return "conflict"
	case apperrors.IsValidation(err):
		return "rejected"
	default:
		return "error"
	}
}

func (h *DashboardHandlers) renderPromoError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "load promo", "error", err)
	}
	h.render(w, r, status,
		NewTemplateData(r, PageMeta{Title: "Promo", CurrentPage: PageNotFound}).
			With("Heading", apperrors.UserMessage(err, "Gagal memuat promo")).
			With("BackPath", DashboardPath(CurrentUser(r.Context()).Role())))
}

type promoJSON struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Terms       string `json:"terms"`
	Expires     string `json:"expires"`
	Code        string `json:"code,omitempty"`
	Eligible    bool   `json:"eligible"`
	Claimed     bool   `json:"claimed"`
	Expired     bool   `json:"expired"`
}

// promoResponse hides the code until the promo is claimed.
func promoResponse(v service.PromoView) promoJSON {
	out := promoJSON{
		ID: v.ID, Title: v.Title, Description: v.Description, Terms: v.Terms, Expires: v.Expires,
		Eligible: v.Eligible, Claimed: v.Claimed, Expired: v.Expired,
	}
	if v.Claimed {
		out.Code = v.Code
	}
	return out
}
