package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"ADDR" envDefault:":8080"`

	// BaseURL is the public URL of the application (e.g., "https://bengkelink.com").
	// Signup confirmation emails link back to BaseURL + /auth/callback.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for client cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int `env:"COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	if h.BaseURL == "" {
		h.BaseURL = "http://localhost:8080"
	}
	h.CompressionLevel = min(max(h.CompressionLevel, 1), 9)
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (h *HTTPConfig) SecureCookies() bool {
	return strings.HasPrefix(h.BaseURL, "https://")
}

// SignupRedirectURL is where signup confirmation emails send the user.
func (h *HTTPConfig) SignupRedirectURL() string {
	return h.BaseURL + "/auth/callback"
}
