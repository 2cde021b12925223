// Package config loads the command-line client's settings from the
// environment.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	Providers   = []string{"sqlite", "memory", "bigcache", "ristretto", "redis"}
	Remotes     = []string{"sqlite", "memory"}
	Codecs      = []string{"json", "cbor", "msgpack", "protobuf"}
	LogBackends = []string{"zap", "logrus", "slog"}
	LogLevels   = []string{"debug", "info", "warn", "error"}
)

// Config controls the cache, remote store and logging of the client.
type Config struct {
	Provider  string `env:"PARKCACHE_PROVIDER"   envDefault:"sqlite"`
	CachePath string `env:"PARKCACHE_CACHE_PATH" envDefault:"parkcache-cache.db"`
	RedisAddr string `env:"PARKCACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	Namespace string `env:"PARKCACHE_NAMESPACE"  envDefault:"parking"`
	Codec     string `env:"PARKCACHE_CODEC"      envDefault:"json"`

	SchemaVersion uint32        `env:"PARKCACHE_SCHEMA_VERSION" envDefault:"1"`
	CacheTTL      time.Duration `env:"PARKCACHE_CACHE_TTL"      envDefault:"0s"`
	MaxEntryBytes int           `env:"PARKCACHE_MAX_ENTRY_BYTES" envDefault:"4194304"`

	Remote       string        `env:"PARKCACHE_REMOTE"        envDefault:"sqlite"`
	RemotePath   string        `env:"PARKCACHE_REMOTE_PATH"   envDefault:"parkcache-remote.db"`
	FetchTimeout time.Duration `env:"PARKCACHE_FETCH_TIMEOUT" envDefault:"0s"`

	Log        string `env:"PARKCACHE_LOG"         envDefault:"zap"`
	LogLevel   string `env:"PARKCACHE_LOG_LEVEL"   envDefault:"info"`
	HookSample uint64 `env:"PARKCACHE_HOOK_SAMPLE" envDefault:"1"`

	User     string `env:"PARKCACHE_USER"`
	Timezone string `env:"PARKCACHE_TIMEZONE" envDefault:"Local"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"PARKCACHE_PROVIDER", c.Provider, Providers},
		{"PARKCACHE_REMOTE", c.Remote, Remotes},
		{"PARKCACHE_CODEC", c.Codec, Codecs},
		{"PARKCACHE_LOG", c.Log, LogBackends},
		{"PARKCACHE_LOG_LEVEL", c.LogLevel, LogLevels},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("%s: unsupported value %q (want one of %v)", ch.name, ch.value, ch.allowed)
		}
	}
	if c.Namespace == "" {
		return fmt.Errorf("PARKCACHE_NAMESPACE: must not be empty")
	}
	if c.Provider == "sqlite" && c.CachePath == "" {
		return fmt.Errorf("PARKCACHE_CACHE_PATH: required for the sqlite provider")
	}
	if c.Remote == "sqlite" && c.RemotePath == "" {
		return fmt.Errorf("PARKCACHE_REMOTE_PATH: required for the sqlite remote")
	}
	if c.CacheTTL < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Booking times are wall-clock times in it.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("PARKCACHE_TIMEZONE: %w", err)
	}
	return loc, nil
}
