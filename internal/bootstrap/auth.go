package bootstrap

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/bengkelink/bengkelink-web/config"
	"github.com/bengkelink/bengkelink-web/internal/adapters/devauth"
	"github.com/bengkelink/bengkelink-web/internal/adapters/gotrue"
	"github.com/bengkelink/bengkelink-web/internal/adapters/jwtverify"
	"github.com/bengkelink/bengkelink-web/internal/adapters/oidc"
	redisadapter "github.com/bengkelink/bengkelink-web/internal/adapters/redis"
	"github.com/bengkelink/bengkelink-web/internal/adapters/storage"
	"github.com/bengkelink/bengkelink-web/internal/data"
	"github.com/bengkelink/bengkelink-web/internal/ports"
	"github.com/bengkelink/bengkelink-web/internal/service"
)

// IdentityDeps contains what BuildIdentity needs. DB is required in gotrue mode only.
type IdentityDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Identity is the wired identity stack for the configured auth mode.
type Identity struct {
	// NewIdentity builds the per-scope identity client handed to the AuthProvider.
	NewIdentity service.IdentityFactory
	Claims      ports.ClaimRepository
	Storage     ports.FileStorage
	// UploadsDir is set when uploads are kept on local disk and served by the app.
	UploadsDir string

	Sessions *redisadapter.SessionStore
	notifier *redisadapter.SessionNotifier
	closers  []func() error
}

// Close releases the notifier subscription and any open storage handles.
func (i *Identity) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.notifier != nil {
		errs = append(errs, i.notifier.Close())
	}
	for _, c := range i.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildIdentity wires the identity backend, token verification, session storage, profile
// source, claim storage and upload storage for cfg.Auth.Mode.
func BuildIdentity(deps IdentityDeps) (*Identity, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.RedisClient == nil {
		return nil, errors.New("redis client is required for session storage")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	sessions := redisadapter.NewSessionStore(deps.RedisClient, redisadapter.SessionStoreOptions{
		Prefix: cfg.Redis.KeyPrefix + "session:",
		TTL:    cfg.Auth.SessionTTL,
	})
	notifier := redisadapter.NewSessionNotifier(deps.RedisClient, redisadapter.NotifierOptions{
		Channel: cfg.Redis.KeyPrefix + "session-events:",
		Logger:  logger,
	})
	id := &Identity{Sessions: sessions, notifier: notifier}

	var (
		backend  ports.IdentityBackend
		verifier ports.TokenVerifier
		profiles ports.ProfileRepository
		err      error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		backend, verifier, profiles, err = buildDevIdentity(cfg, logger)
		id.Claims = devauth.NewClaimStore()
	case config.AuthModeGoTrue:
		if deps.DB == nil {
			err = errors.New("database is required when AUTH_MODE=gotrue")
			break
		}
		backend, verifier, err = buildGoTrueIdentity(cfg)
		profiles = data.NewProfileRepo(deps.DB)
		id.Claims = data.NewClaimRepo(deps.DB)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		_ = id.Close()
		return nil, err
	}

	if err := buildStorage(cfg, id, logger); err != nil {
		_ = id.Close()
		return nil, err
	}

	id.NewIdentity = func(scopeID string) (ports.IdentityClient, error) {
		return service.NewScopedIdentity(service.ScopedIdentityOptions{
			ScopeID:  scopeID,
			Backend:  backend,
			Verifier: verifier,
			Tokens:   sessions,
			Notifier: notifier,
			Profiles: profiles,
			Logger:   logger,
		})
	}
	logger.Info("identity configured", "mode", cfg.Auth.Mode, "verifier", verifierName(cfg), "storage", cfg.Storage.Driver)
	return id, nil
}

//nolint:ireturn // the caller only needs the ports.
func buildGoTrueIdentity(cfg *config.AppConfig) (ports.IdentityBackend, ports.TokenVerifier, error) {
	hc := &http.Client{Timeout: cfg.Identity.Timeout}
	backend, err := gotrue.New(gotrue.Config{
		URL:        cfg.Identity.URL,
		APIKey:     cfg.Identity.APIKey,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("identity backend: %w", err)
	}

	var verifier ports.TokenVerifier
	switch cfg.Identity.Verifier {
	case config.VerifierJWKS:
		verifier, err = oidc.NewVerifier(oidc.VerifierConfig{
			Issuer:     cfg.Identity.JWTIssuer,
			JWKSURL:    cfg.Identity.JWKSURL,
			Audience:   cfg.Identity.JWTAudience,
			HTTPClient: hc,
		})
	default:
		verifier, err = jwtverify.New(jwtverify.Config{
			Secret:   cfg.Identity.JWTSecret,
			Issuer:   cfg.Identity.JWTIssuer,
			Audience: cfg.Identity.JWTAudience,
		})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("token verifier: %w", err)
	}
	return backend, verifier, nil
}

//nolint:ireturn // the caller only needs the ports.
func buildDevIdentity(cfg *config.AppConfig, logger *slog.Logger) (ports.IdentityBackend, ports.TokenVerifier, ports.ProfileRepository, error) {
	secret := cfg.Identity.JWTSecret
	if len(secret) < config.MinJWTSecretLen {
		b := make([]byte, config.MinJWTSecretLen)
		if _, err := rand.Read(b); err != nil {
			return nil, nil, nil, fmt.Errorf("generate dev jwt secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		logger.Warn("dev auth: IDENTITY_JWT_SECRET unset or short; using a random secret, sessions end on restart")
	}
	signer, err := jwtverify.New(jwtverify.Config{Secret: secret, Issuer: "bengkelink-dev", Audience: cfg.Identity.JWTAudience})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dev token signer: %w", err)
	}
	backend, err := devauth.NewBackend(devauth.Config{
		Signer:    signer,
		AccessTTL: cfg.Identity.DevAccessTTL,
		Accounts:  devauth.DefaultAccounts(cfg.Auth.EmailDomain),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dev identity backend: %w", err)
	}
	logger.Warn("dev auth enabled: seeded demo accounts, do not use in production",
		"password", devauth.DefaultPassword)
	return backend, signer, backend, nil
}

func buildStorage(cfg *config.AppConfig, id *Identity, logger *slog.Logger) error {
	driver := cfg.Storage.Driver
	if driver == config.StorageDriverObject && cfg.Auth.Mode == config.AuthModeDev && cfg.Storage.URL == "" {
		logger.Info("dev auth: no STORAGE_URL, keeping uploads on disk", "dir", cfg.Storage.Dir)
		driver = config.StorageDriverDisk
	}

	switch driver {
	case config.StorageDriverDisk:
		store, err := storage.NewDiskStore(cfg.Storage.Dir, cfg.Storage.PublicURL)
		if err != nil {
			return fmt.Errorf("disk storage: %w", err)
		}
		id.Storage = store
		id.UploadsDir = store.Dir()
		id.closers = append(id.closers, store.Close)
	default:
		base := cfg.Storage.URL
		if base == "" {
			base = origin(cfg.Identity.URL)
		}
		key := cfg.Storage.ServiceKey
		if key == "" {
			key = cfg.Identity.APIKey
		}
		store, err := storage.NewObjectStore(storage.ObjectStoreConfig{
			URL:        base,
			Bucket:     cfg.Storage.Bucket,
			ServiceKey: key,
		})
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		id.Storage = store
	}
	return nil
}

// origin strips the path from an identity URL: https://p.supabase.co/auth/v1 -> https://p.supabase.co.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func verifierName(cfg *config.AppConfig) string {
	if cfg.Auth.Mode == config.AuthModeDev {
		return "dev-hs256"
	}
	return string(cfg.Identity.Verifier)
}
