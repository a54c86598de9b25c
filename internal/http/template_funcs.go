package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"strings"
	"time"
	"unicode"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
)

// Indonesian month names; time.Format only knows English.
var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - output of our own html/template set, already escaped.
			return template.HTML(buf.String()), nil
		},
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
		"roleLabel":   func(r domainauth.Role) string { return r.Label() },
		"formatDate":  formatDate,
		"statusLabel": verificationLabel,
		"initials":    initials,
		"join":        strings.Join,
		"fieldError": func(errs any, field string) string {
			m, _ := errs.(map[string]string)
			return m[field]
		},
		"dashboardPath": DashboardPath,
	}
}

func formatDate(v any) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x != nil {
			t = *x
		}
	}
	if t.IsZero() {
		return "-"
	}
	return t.Format("2") + " " + monthNames[t.Month()-1] + " " + t.Format("2006")
}

func verificationLabel(s domainauth.VerificationStatus) string {
	switch s {
	case domainauth.VerificationVerified:
		return "Terverifikasi"
	case domainauth.VerificationRejected:
		return "Ditolak"
	default:
		return "Menunggu Verifikasi"
	}
}

func initials(name string) string {
	var b strings.Builder
	for _, f := range strings.Fields(name) {
		r := []rune(f)[0]
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
