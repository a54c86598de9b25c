package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bengkelink/bengkelink-web/config"
	httpx "github.com/bengkelink/bengkelink-web/internal/http"
)

const shutdownTimeout = 10 * time.Second

// BuildHTTPHandler builds the router and wraps it with process-level middleware.
// Order: Recover -> Logging -> Compression -> Router.
func BuildHTTPHandler(cfg *config.AppConfig, svcs *Services, logger *slog.Logger) (http.Handler, error) {
	services := httpx.RouterServices{
		Provider:       svcs.Provider,
		Promos:         svcs.Promos,
		Uploads:        svcs.Uploads,
		CookieName:     cfg.Auth.CookieName,
		CookieDomain:   cfg.HTTP.CookieDomain,
		SecureCookies:  cfg.HTTP.SecureCookies(),
		SessionTTL:     cfg.Auth.SessionTTL,
		GuardWait:      cfg.Auth.GuardWait,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		HealthChecks:   svcs.HealthChecks,
		Metrics:        svcs.Metrics,
		IsDev:          cfg.IsDev,
		Logger:         logger,
	}
	if svcs.Identity != nil && svcs.Identity.UploadsDir != "" {
		services.UploadsDir = svcs.Identity.UploadsDir
		services.UploadsPath = cfg.Storage.PublicPath
	}

	router, err := httpx.NewRouter(services)
	if err != nil {
		return nil, err
	}

	h := router
	if cfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel})(h)
	}
	h = httpx.Logging(logger)(h)
	h = httpx.Recover(logger)(h)
	return h, nil
}

// RunConfig contains what Run needs to serve until shutdown.
type RunConfig struct {
	Config   *config.AppConfig
	Services *Services
	Logger   *slog.Logger
}

// Run serves HTTP and sweeps idle auth scopes until SIGINT/SIGTERM or a fatal error, then
// shuts the server down and closes every scope.
func Run(ctx context.Context, rc RunConfig) error {
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler, err := BuildHTTPHandler(rc.Config, rc.Services, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := rc.Config.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rc.Services.Provider.Run(gctx, rc.Config.Auth.ScopeSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdownHTTPServer(server, logger)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if cerr := rc.Services.Close(); cerr != nil {
		logger.Error("close services", "error", cerr)
	}
	logger.Info("shutdown complete")
	return err
}

func shutdownHTTPServer(server *http.Server, logger *slog.Logger) error {
	logger.Info("shutting down HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
