package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/bengkelink/bengkelink-web/config"
	"github.com/bengkelink/bengkelink-web/internal/domain/promo"
	httpx "github.com/bengkelink/bengkelink-web/internal/http"
	"github.com/bengkelink/bengkelink-web/internal/observability/statsd"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// ServiceDeps contains shared infrastructure for building services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Services holds every long-lived service the HTTP layer depends on.
type Services struct {
	Identity *Identity
	Provider *service.AuthProvider
	Promos   *service.PromoService
	// Uploads is nil when no file storage is configured.
	Uploads      *service.SignupUploader
	HealthChecks map[string]httpx.HealthCheck
	// Metrics drops every metric when METRICS_ENABLED is false.
	Metrics *statsd.Client
}

// NewServices wires the identity stack, the scope provider, promos and signup uploads.
func NewServices(deps *ServiceDeps) (*Services, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	id, err := BuildIdentity(IdentityDeps{
		Config:      cfg,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	svcs := &Services{Identity: id}

	svcs.Metrics, err = statsd.NewClient(statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Tags:    map[string]string{"auth_mode": string(cfg.Auth.Mode)},
		Logger:  logger,
	})
	if err != nil {
		_ = svcs.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	svcs.Provider, err = service.NewAuthProvider(service.AuthProviderOptions{
		NewIdentity: id.NewIdentity,
		Controller:  controllerOptions(cfg),
		IdleTimeout: cfg.Auth.ScopeIdleTimeout,
		MaxScopes:   cfg.Auth.MaxScopes,
		Metrics:     svcs.Metrics,
		Logger:      logger,
	})
	if err != nil {
		_ = svcs.Close()
		return nil, fmt.Errorf("auth provider: %w", err)
	}

	catalog, err := loadCatalog(cfg.Promo.CatalogPath)
	if err != nil {
		_ = svcs.Close()
		return nil, err
	}
	svcs.Promos, err = service.NewPromoService(service.PromoServiceOptions{
		Catalog: catalog,
		Claims:  id.Claims,
		Logger:  logger,
	})
	if err != nil {
		_ = svcs.Close()
		return nil, fmt.Errorf("promo service: %w", err)
	}

	if id.Storage != nil {
		svcs.Uploads, err = service.NewSignupUploader(service.SignupUploaderOptions{
			Storage:  id.Storage,
			MaxBytes: cfg.Storage.MaxUploadBytes,
			Logger:   logger,
		})
		if err != nil {
			_ = svcs.Close()
			return nil, fmt.Errorf("signup uploads: %w", err)
		}
	}

	svcs.HealthChecks = healthChecks(deps.DB, deps.RedisClient)
	return svcs, nil
}

// Close stops every mounted scope and releases identity and metrics resources.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	if s.Provider != nil {
		s.Provider.Close()
	}
	return errors.Join(s.Identity.Close(), s.Metrics.Close())
}

func controllerOptions(cfg *config.AppConfig) service.SessionControllerOptions {
	return service.SessionControllerOptions{
		Retry: service.RetryPolicy{
			MaxAttempts: cfg.Auth.ProfileRetryAttempts,
			Delay:       cfg.Auth.ProfileRetryDelay,
			Backoff:     cfg.Auth.ProfileRetryBackoff,
		},
		EmailDomain:       cfg.Auth.EmailDomain,
		SignupRedirectURL: cfg.HTTP.SignupRedirectURL(),
	}
}

// loadCatalog reads the promo catalog file; an empty path selects the built-in catalog.
func loadCatalog(path string) (*promo.Catalog, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // nil selects the default catalog.
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open promo catalog: %w", err)
	}
	defer f.Close()
	c, err := promo.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load promo catalog %s: %w", path, err)
	}
	return c, nil
}

func healthChecks(db *sql.DB, rc redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := make(map[string]httpx.HealthCheck, 2)
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return rc.Ping(ctx).Err() }
	}
	return checks
}
