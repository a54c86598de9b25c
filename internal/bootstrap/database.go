package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/redis/go-redis/v9"

	"github.com/bengkelink/bengkelink-web/config"
	"github.com/bengkelink/bengkelink-web/internal/migrate"
)

const (
	connectTimeout  = 5 * time.Second
	connMaxLifetime = 5 * time.Minute
)

// DatabaseConfig carries the Postgres and Redis settings for the connect helpers.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

func (c DatabaseConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// ConnectDB opens Postgres through the pgx stdlib driver and pings it.
// Only gotrue mode needs a database; profiles and claims live there.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DBConfig.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(max(cfg.DBConfig.MaxOpenConns, 1))
	db.SetMaxIdleConns(max(cfg.DBConfig.MaxIdleConns, 0))
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping database: %w", err), db.Close())
	}

	cfg.logger().Info("database connected",
		"host", cfg.DBConfig.Host,
		"port", cfg.DBConfig.Port,
		"database", cfg.DBConfig.Name,
	)
	return db, nil
}

type redisMode string

const (
	redisDirect   redisMode = "direct"
	redisSentinel redisMode = "sentinel"
	redisCluster  redisMode = "cluster"
)

// redisTarget is a resolved Redis topology. desc never carries credentials.
type redisTarget struct {
	mode redisMode
	opts *redis.UniversalOptions
	desc string
}

// resolveRedis turns RedisConfig into one topology. Cluster wins over sentinel;
// a cluster without nodes falls back to the URI as its seed address.
func resolveRedis(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		opts := &redis.UniversalOptions{Addrs: trimAddrs(cfg.ClusterNodes), Password: cfg.Password}
		if len(opts.Addrs) == 0 {
			seed, err := optionsFromURI(cfg.URI, cfg.Password, 0)
			if err != nil {
				return redisTarget{}, fmt.Errorf("redis cluster seed: %w", err)
			}
			if seed != nil {
				opts = seed
			}
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis cluster needs at least one node")
		}
		return redisTarget{mode: redisCluster, opts: opts, desc: "cluster:" + strings.Join(opts.Addrs, ",")}, nil

	case cfg.UseSentinel:
		nodes := trimAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisTarget{}, errors.New("redis sentinel needs at least one sentinel node")
		}
		return redisTarget{
			mode: redisSentinel,
			opts: &redis.UniversalOptions{
				Addrs:            nodes,
				MasterName:       cfg.SentinelMasterName,
				Password:         cfg.Password,
				SentinelPassword: cfg.SentinelPassword,
				DB:               cfg.DB,
			},
			desc: "sentinel:" + cfg.SentinelMasterName,
		}, nil

	default:
		opts, err := optionsFromURI(cfg.URI, cfg.Password, cfg.DB)
		if err != nil {
			return redisTarget{}, err
		}
		if opts == nil {
			return redisTarget{}, errors.New("redis URI is required")
		}
		return redisTarget{mode: redisDirect, opts: opts, desc: opts.Addrs[0]}, nil
	}
}

// optionsFromURI accepts host:port or a redis:// / rediss:// URL. Credentials in the URL
// take precedence over the configured password. An empty URI yields nil options.
func optionsFromURI(uri, password string, db int) (*redis.UniversalOptions, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		return &redis.UniversalOptions{Addrs: []string{uri}, Password: password, DB: db}, nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if parsed.Password == "" {
		parsed.Password = password
	}
	return &redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}, nil
}

//nolint:ireturn // the topology decides the concrete client.
func (t redisTarget) client() redis.UniversalClient {
	switch t.mode {
	case redisCluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case redisSentinel:
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

func trimAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// ConnectRedis connects to the configured topology and pings it. Session tokens and
// session change events go through this client in every auth mode.
//
//nolint:ireturn // callers get single, sentinel, or cluster clients behind one interface.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedis(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.client()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("ping redis (%s): %w", target.desc, err), client.Close())
	}

	cfg.logger().Info("redis connected", "mode", string(target.mode), "addr", target.desc)
	return client, nil
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := migrate.RunWithLogger(ctx, db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database migrations completed")
	return nil
}
