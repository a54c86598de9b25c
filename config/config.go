package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: auth scopes, profile retry and the identity backend
//   - database.go: Postgres and Redis
//   - http.go: HTTP server and cookies
//   - storage.go: signup upload storage
//   - promo.go: promo catalog
//   - metrics.go: StatsD metrics
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, secure cookies, log source).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Identity IdentityConfig `envPrefix:"IDENTITY_"`
	Postgres DBConfig       `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Promo    PromoConfig    `envPrefix:"PROMO_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Identity.Sanitize()
	c.Storage.Sanitize(c.HTTP.BaseURL)
	c.Promo.Sanitize()
	c.Metrics.Sanitize()
}

// detectDevMode falls back to APP_ENV when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// Validate reports configuration that cannot work for the selected auth mode.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Auth.Mode == AuthModeGoTrue {
		if c.Identity.URL == "" {
			errs = append(errs, errors.New("IDENTITY_URL is required when AUTH_MODE=gotrue"))
		}
		if c.Identity.APIKey == "" {
			errs = append(errs, errors.New("IDENTITY_API_KEY is required when AUTH_MODE=gotrue"))
		}
		if c.Identity.Verifier == VerifierHS256 && len(c.Identity.JWTSecret) < MinJWTSecretLen {
			errs = append(errs, fmt.Errorf("IDENTITY_JWT_SECRET must be at least %d bytes", MinJWTSecretLen))
		}
		if c.Storage.Driver == StorageDriverObject && c.Storage.URL == "" && c.Identity.URL == "" {
			errs = append(errs, errors.New("STORAGE_URL is required for the object storage driver"))
		}
	}
	if c.Auth.Mode == AuthModeDev && !c.IsDev {
		errs = append(errs, errors.New("AUTH_MODE=dev requires DEV=true"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
