package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects the identity backend.
type AuthMode string

const (
	// AuthModeGoTrue talks to a GoTrue-compatible identity service over HTTP.
	AuthModeGoTrue AuthMode = "gotrue"
	// AuthModeDev keeps accounts in memory with seeded demo users (development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "gotrue", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: gotrue, dev)", v)
	}
}

// AuthConfig controls client scopes and the session controller.
type AuthConfig struct {
	Mode AuthMode `env:"MODE" envDefault:"gotrue"`

	// EmailDomain builds workshop identifiers: <partnership>@workshop.<domain>.
	EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"bengkelink.com"`

	ProfileRetryAttempts int           `env:"PROFILE_RETRY_ATTEMPTS" envDefault:"3"`
	ProfileRetryDelay    time.Duration `env:"PROFILE_RETRY_DELAY"    envDefault:"1s"`
	ProfileRetryBackoff  bool          `env:"PROFILE_RETRY_BACKOFF"  envDefault:"false"`

	// ScopeIdleTimeout unmounts client scopes nobody has used for this long.
	ScopeIdleTimeout   time.Duration `env:"SCOPE_IDLE_TIMEOUT"   envDefault:"30m"`
	ScopeSweepInterval time.Duration `env:"SCOPE_SWEEP_INTERVAL" envDefault:"1m"`
	// MaxScopes caps mounted scopes; the least recently used one is evicted past it.
	MaxScopes int `env:"MAX_SCOPES" envDefault:"10000"`

	// GuardWait is how long protected pages wait for a loading scope before rendering the loading page.
	GuardWait time.Duration `env:"GUARD_WAIT" envDefault:"3s"`

	// CookieName holds the opaque client scope id.
	CookieName string `env:"COOKIE_NAME" envDefault:"bengkelink_client"`
	// SessionTTL bounds how long stored tokens and the client cookie live.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.EmailDomain = strings.ToLower(strings.TrimSpace(a.EmailDomain))
	if a.EmailDomain == "" {
		a.EmailDomain = "bengkelink.com"
	}
	if a.ProfileRetryAttempts < 1 {
		a.ProfileRetryAttempts = 1
	}
	if a.ProfileRetryDelay < 0 {
		a.ProfileRetryDelay = 0
	}
	if a.ScopeIdleTimeout <= 0 {
		a.ScopeIdleTimeout = 30 * time.Minute
	}
	if a.ScopeSweepInterval <= 0 || a.ScopeSweepInterval > a.ScopeIdleTimeout {
		a.ScopeSweepInterval = min(time.Minute, a.ScopeIdleTimeout)
	}
	if a.MaxScopes <= 0 {
		a.MaxScopes = 10000
	}
	if a.GuardWait < 0 {
		a.GuardWait = 0
	}
	if strings.TrimSpace(a.CookieName) == "" {
		a.CookieName = "bengkelink_client"
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 7 * 24 * time.Hour
	}
}

// TokenVerifierKind selects how access tokens are verified.
type TokenVerifierKind string

const (
	// VerifierHS256 checks tokens against the shared JWT secret.
	VerifierHS256 TokenVerifierKind = "hs256"
	// VerifierJWKS checks tokens against the backend's published signing keys.
	VerifierJWKS TokenVerifierKind = "jwks"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenVerifierKind.
func (k *TokenVerifierKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "hs256", "jwks":
		*k = TokenVerifierKind(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenVerifierKind: %q (valid options: hs256, jwks)", v)
	}
}

// MinJWTSecretLen is the shortest HS256 secret accepted.
const MinJWTSecretLen = 32

// IdentityConfig describes the identity backend.
type IdentityConfig struct {
	// URL is the GoTrue base URL, e.g. https://project.supabase.co/auth/v1.
	URL string `env:"URL"`
	// APIKey is sent as the apikey header on every call.
	APIKey string `env:"API_KEY"`

	Verifier TokenVerifierKind `env:"VERIFIER" envDefault:"hs256"`
	// JWTSecret signs access tokens (hs256 verifier; also used by dev mode).
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`
	// JWKSURL defaults to <issuer>/.well-known/jwks.json.
	JWKSURL string `env:"JWKS_URL"`

	// Timeout bounds every call to the identity backend.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// DevAccessTTL is the access token lifetime issued in dev mode.
	DevAccessTTL time.Duration `env:"DEV_ACCESS_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to identity configuration values.
func (i *IdentityConfig) Sanitize() {
	i.URL = strings.TrimRight(strings.TrimSpace(i.URL), "/")
	i.APIKey = strings.TrimSpace(i.APIKey)
	i.JWTIssuer = strings.TrimSpace(i.JWTIssuer)
	if i.JWTIssuer == "" && i.URL != "" {
		i.JWTIssuer = i.URL
	}
	if i.Verifier == "" {
		i.Verifier = VerifierHS256
	}
	if i.Timeout <= 0 {
		i.Timeout = 10 * time.Second
	}
	if i.DevAccessTTL <= 0 {
		i.DevAccessTTL = time.Hour
	}
}
