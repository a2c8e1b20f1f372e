package redis

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// maxStatementTruncateLen caps commands recorded on spans.
const maxStatementTruncateLen = 100

// Connection and pool defaults.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 6379
	DefaultDB           = 0
	DefaultPoolSize     = 10
	DefaultMinIdleConns = 2
	DefaultMaxRetries   = 3
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = time.Second
	DefaultWriteTimeout = time.Second

	// DefaultHealthTimeout bounds [Client.Health] when the caller's
	// context has no deadline.
	DefaultHealthTimeout = 5 * time.Second
)

// Secret is a password that prints as "[REDACTED]".
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// Value returns the password.
func (s Secret) Value() string { return string(s) }

// MarshalText keeps the password out of JSON and YAML.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Config is the connection configuration. When URI is set it wins over
// Host, Port, DB and Password. Env tags are relative, e.g.
// AUTH_CACHE_REDIS_HOST once nested by the server config.
type Config struct {
	URI      string `yaml:"uri" json:"uri,omitempty" env:"URI"`
	Host     string `yaml:"host" json:"host,omitempty" env:"HOST" envDefault:"localhost"`
	Port     int    `yaml:"port" json:"port,omitempty" env:"PORT" envDefault:"6379"`
	DB       int    `yaml:"db" json:"db" env:"DB"`
	Password Secret `yaml:"password" json:"-" env:"PASSWORD"`

	PoolSize     int           `yaml:"pool_size" json:"pool_size,omitempty" env:"POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns,omitempty" env:"MIN_IDLE_CONNS"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries,omitempty" env:"MAX_RETRIES"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout,omitempty" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout,omitempty" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout,omitempty" env:"WRITE_TIMEOUT"`

	// TLSEnabled turns on TLS for structured configs. A rediss:// URI
	// enables it on its own.
	TLSEnabled bool `yaml:"tls_enabled" json:"tls_enabled,omitempty" env:"TLS_ENABLED"`
}

// DefaultConfig returns a Config for a local server.
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		DB:           DefaultDB,
		PoolSize:     DefaultPoolSize,
		MinIdleConns: DefaultMinIdleConns,
		MaxRetries:   DefaultMaxRetries,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Validate fills zero pool settings with defaults and checks the rest. With
// a URI only the URI itself is checked.
func (c *Config) Validate() error {
	if err := c.applyDefaults(); err != nil {
		return err
	}

	if c.URI != "" {
		u, err := url.Parse(c.URI)
		if err != nil {
			return fmt.Errorf("redis: config URI is invalid: %w", err)
		}
		if u.Scheme != "redis" && u.Scheme != "rediss" {
			return fmt.Errorf("redis: config URI scheme must be redis:// or rediss://, got %q", u.Scheme)
		}
		return nil
	}

	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("redis: config port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DB < 0 {
		return fmt.Errorf("redis: config db must not be negative, got %d", c.DB)
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis: config pool sizes must not be negative")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("redis: config timeouts must not be negative")
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = DefaultMinIdleConns
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.PoolSize < c.MinIdleConns {
		return fmt.Errorf("redis: config pool_size (%d) must be >= min_idle_conns (%d)", c.PoolSize, c.MinIdleConns)
	}
	return nil
}

func truncateStatement(s string) string {
	runes := []rune(s)
	if len(runes) <= maxStatementTruncateLen {
		return s
	}
	return string(runes[:maxStatementTruncateLen]) + "..."
}
