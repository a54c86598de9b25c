package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger

	mu sync.RWMutex
	t  *template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS // required
	// DevMode re-parses templates on every render so edits on disk show up immediately.
	DevMode bool
	Logger  *slog.Logger
}

// NewTemplateRenderer parses every template once up front so broken templates fail startup.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	t, err := r.parse()
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	var err error
	t, err = template.New("root").Funcs(templateFuncs(&t)).ParseFS(r.fsys,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	return t, err
}

func (r *TemplateRenderer) templates() (*template.Template, error) {
	if r.devMode {
		t, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.t = t
		r.mu.Unlock()
		return t, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t, nil
}

// Page renders data with status. htmx partial requests get only the content block;
// everything else gets the full layout.
func (r *TemplateRenderer) Page(w http.ResponseWriter, req *http.Request, status int, data any) error {
	name := "layout"
	if WantsPartial(req) {
		name = "content"
	}
	return r.render(w, status, name, data)
}

func (r *TemplateRenderer) render(w http.ResponseWriter, status int, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		r.logger.Error("template reload failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("template", name), slog.Any("error", err))
		return err
	}
	return nil
}
