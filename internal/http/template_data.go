package httpx

import (
	"maps"
	"net/http"
	"time"

	"github.com/bengkelink/bengkelink-web/internal/service"
)

// PageMeta names the page being rendered.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData starts template data with the fields every page needs: page meta, the CSRF
// token, the scope's auth state and any queued notifications. Building page data drains the
// scope's notification queue.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	st := AuthStateFrom(r.Context())
	data := map[string]any{
		"Title":           meta.Title,
		"CurrentPage":     meta.CurrentPage,
		"CSRFToken":       CSRFToken(r),
		"IsAuthenticated": st.IsAuthenticated,
		"IsLoading":       st.IsLoading,
		"User":            st.User,
		"Year":            time.Now().Year(),
	}
	if st.User != nil {
		data["Role"] = st.User.Role()
		data["DashboardPath"] = DashboardPath(st.User.Role())
	}
	var notes []service.Notification
	if ctrl, ok := SessionControllerFrom(r.Context()); ok {
		notes = ctrl.Notifications().Drain()
	}
	data["Notifications"] = notes
	return &TemplateDataBuilder{data: data}
}

// WithError sets the page-level error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Error"] = msg
	}
	return b
}

// WithFieldErrors merges per-field messages keyed by form field name.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) == 0 {
		return b
	}
	existing, _ := b.data["FieldErrors"].(map[string]string)
	merged := make(map[string]string, len(existing)+len(errs))
	maps.Copy(merged, existing)
	maps.Copy(merged, errs)
	b.data["FieldErrors"] = merged
	return b
}

// With sets an arbitrary key.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the data map.
func (b *TemplateDataBuilder) Build() map[string]any { return b.data }
