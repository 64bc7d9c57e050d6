// Package config loads storefront settings from the environment.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Client ClientConfig
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

// ClientConfig drives the storefront CLI and its client core.
type ClientConfig struct {
	APIURL           string        `env:"STOREFRONT_API_URL,    default=http://localhost:8080"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT,       default=10s"`
	BackendRateLimit float64       `env:"BACKEND_RATE_LIMIT,    default=0"`
	MergeByProduct   bool          `env:"CART_MERGE_BY_PRODUCT, default=false"`
	IdentityStore    string        `env:"IDENTITY_STORE,        default=redis"`
	IdentityKey      string        `env:"IDENTITY_KEY,          default=minimalUser"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT,     default=15s"`
	DispatchWorkers  int           `env:"DISPATCH_WORKERS,      default=4"`
	MetricsAddr      string        `env:"METRICS_ADDR"`
}

// ServerConfig drives the reference backend.
type ServerConfig struct {
	Port            string        `env:"PORT,              default=8080"`
	Storage         string        `env:"STORAGE,           default=mongo"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,         default=24h"`
	AdminSignupCode string        `env:"ADMIN_SIGNUP_CODE"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Production reports whether ENV names a production deployment.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWithLookuper(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWithLookuper reads configuration from l.
func LoadWithLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Client.IdentityStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("IDENTITY_STORE must be redis or memory, got %q", c.Client.IdentityStore)
	}
	switch c.Server.Storage {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORAGE must be mongo or memory, got %q", c.Server.Storage)
	}
	if c.Client.BackendRateLimit < 0 {
		return fmt.Errorf("BACKEND_RATE_LIMIT must not be negative")
	}
	return nil
}
