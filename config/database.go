package config

import (
	"net"
	"net/url"
	"strconv"
)

// DBConfig contains PostgreSQL database configuration.
// Postgres holds profiles and promo claims when AUTH_MODE=gotrue.
type DBConfig struct {
	// DSN overrides the discrete connection fields when set.
	DSN      string `env:"DSN"`
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"bengkelink"`
	Password string `env:"PASSWORD" envDefault:"bengkelink"`
	Name     string `env:"NAME"     envDefault:"bengkelink"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production

	MaxOpenConns int `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int `env:"MAX_IDLE_CONNS" envDefault:"5"`

	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// ConnString returns DSN or builds one from the discrete fields.
// url.URL escapes special characters in credentials.
func (c DBConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig contains Redis configuration.
// Redis stores per-scope session tokens and carries session change events.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// KeyPrefix namespaces session keys and pub/sub channels.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"bengkelink:"`
}
