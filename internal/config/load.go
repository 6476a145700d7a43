// Package config defines environment configuration structs and loaders.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	ServerEnvConfig
	StoreEnvConfig
	RedisEnvConfig
	AllowlistEnvConfig
	RoleEnvConfig
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects backend names that no component understands.
func (c *AppConfig) Validate() error {
	switch c.StoreBackend {
	case StoreBackendRedis:
	case StoreBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=%s", StoreBackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AllowlistBackend {
	case AllowlistNone, AllowlistStatic, AllowlistRedis:
	case AllowlistHTTP:
		if c.AllowlistURL == "" {
			return fmt.Errorf("ALLOWLIST_URL is required when ALLOWLIST_BACKEND=%s", AllowlistHTTP)
		}
	default:
		return fmt.Errorf("unknown ALLOWLIST_BACKEND %q", c.AllowlistBackend)
	}
	return nil
}

const (
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"

	AllowlistNone   = "none"
	AllowlistStatic = "static"
	AllowlistRedis  = "redis"
	AllowlistHTTP   = "http"
)

// ServerEnvConfig configures the HTTP server.
type ServerEnvConfig struct {
	Host          string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port          int    `env:"SERVER_PORT" envDefault:"8888"`
	BodySizeLimit int    `env:"SERVER_BODY_LIMIT" envDefault:"1048576"`
}

// StoreEnvConfig selects where verified linkages and registrations are kept.
type StoreEnvConfig struct {
	StoreBackend string `env:"STORE_BACKEND" envDefault:"redis"`
	PostgresDSN  string `env:"POSTGRES_DSN"`
}

// RedisEnvConfig configures Redis connection.
type RedisEnvConfig struct {
	RedisHost      string `env:"REDIS_HOST" envDefault:"127.0.0.1"`
	RedisPort      int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisUsername  string `env:"REDIS_USERNAME"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"walletlink"`
}

// AllowlistEnvConfig configures the holder allowlist consulted after verification.
type AllowlistEnvConfig struct {
	AllowlistBackend   string        `env:"ALLOWLIST_BACKEND" envDefault:"none"`
	AllowlistAddresses []string      `env:"ALLOWLIST_ADDRESSES" envSeparator:","`
	AllowlistURL       string        `env:"ALLOWLIST_URL"`
	AllowlistTimeout   time.Duration `env:"ALLOWLIST_TIMEOUT" envDefault:"10s"`
}

// RoleEnvConfig holds the platform roles allowed to register wallets.
type RoleEnvConfig struct {
	ValidRoles      []string `env:"VALID_ROLES" envSeparator:","`
	PostRoleID      string   `env:"POST_ROLE_ID"`
	LinkRequireRole bool     `env:"LINK_REQUIRE_ROLE" envDefault:"false"`
}

// IsValidRole reports whether role is one of the configured roles, ignoring case.
func (r RoleEnvConfig) IsValidRole(role string) bool {
	for _, v := range r.ValidRoles {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(role)) {
			return true
		}
	}
	return false
}

// Addr is the listen address for the HTTP server.
func (s ServerEnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Addr is the host:port of the Redis server.
func (r RedisEnvConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.RedisHost, r.RedisPort)
}
