package main

import (
	"log/slog"
	"time"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/postgres"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/redis"
	"github.com/StricklySoft/stricklysoft-auth/pkg/config"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// EnvPrefix is prepended to every environment variable the server reads,
// e.g. AUTH_JWT_SECRET or AUTH_POSTGRES_HOST.
const EnvPrefix = "AUTH"

// Supported user store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ServerConfig is the complete configuration of the auth server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr" env:"ADDR" envDefault:":8080"`
	Store           string        `yaml:"store" json:"store" env:"STORE" envDefault:"memory"`
	LogLevel        string        `yaml:"log_level" json:"log_level" env:"LOG_LEVEL" envDefault:"info"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Auth     auth.Config     `yaml:"auth" json:"auth"`
	Postgres postgres.Config `yaml:"postgres" json:"postgres" env:"POSTGRES"`
	Cache    CacheConfig     `yaml:"cache" json:"cache" env:"CACHE"`
}

// CacheConfig enables the Redis identity cache in front of the user store.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled" env:"ENABLED"`
	TTL       time.Duration `yaml:"ttl" json:"ttl" env:"TTL" envDefault:"1m"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix" env:"KEY_PREFIX" envDefault:"auth:user:"`

	Redis redis.Config `yaml:"redis" json:"redis" env:"REDIS"`
}

// Validate checks the server settings and the nested configs in use.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return sserr.Required("addr")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	default:
		return sserr.Newf(sserr.CodeValidationFormat,
			"config: store must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.TTL <= 0 {
		return sserr.New(sserr.CodeValidationFormat, "config: cache ttl must be positive")
	}
	return c.Cache.Redis.Validate()
}

// Level parses LogLevel.
func (c *ServerConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, sserr.Wrapf(err, sserr.CodeValidationFormat, "config: invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// loadConfig layers defaults, the optional file at path and the
// environment. A nil lookup reads the process environment.
func loadConfig(path string, lookup config.LookupFunc) (ServerConfig, error) {
	loader := config.New().WithEnvPrefix(EnvPrefix)
	if path != "" {
		loader = loader.WithFile(path)
	}
	if lookup != nil {
		loader = loader.WithLookup(lookup)
	}
	var cfg ServerConfig
	if err := loader.Load(&cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
