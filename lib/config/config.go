// Copyright 2026 The Arcade Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selects the key/value store implementation.
type Backend string

const (
	// BackendRedis stores assets in a Redis instance.
	BackendRedis Backend = "redis"
	// BackendMemory stores assets in process memory. Development only:
	// the cache is lost on restart and not shared between instances.
	BackendMemory Backend = "memory"
)

// Duration wraps time.Duration with YAML unmarshalling from
// strings like "30s" or "8760h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the master configuration for the play service.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Store configures the key/value cache backend.
	Store StoreConfig `yaml:"store"`

	// Asset configures resolver behavior.
	Asset AssetConfig `yaml:"asset"`

	// Relay configures websocket sessions.
	Relay RelayConfig `yaml:"relay"`

	// Runtime identifies the repository hosting the WebAssembly
	// runtime archives. Runtime members (runtime.js, runtime.wasm)
	// are fetched from this repository's releases.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Releases is the manifest of playable artifacts.
	Releases []Release `yaml:"releases"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080".
	Address string `yaml:"address"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// StoreConfig configures the key/value cache backend.
type StoreConfig struct {
	// Backend selects the implementation: "redis" or "memory".
	// Default: redis
	Backend Backend `yaml:"backend"`

	// Redis configures the Redis backend. Ignored for "memory".
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	// Address is the host:port of the Redis instance.
	// Default: localhost:6379
	Address string `yaml:"address"`

	// Password authenticates the connection. Empty means no auth.
	Password string `yaml:"password"`

	// DB selects the logical database.
	DB int `yaml:"db"`
}

// AssetConfig configures resolver behavior.
type AssetConfig struct {
	// TTL is how long cached assets live. Release artifacts are
	// immutable once published, so the default is generous.
	// Default: 8760h (one year)
	TTL Duration `yaml:"ttl"`

	// FetchTimeout bounds a single origin fetch.
	// Default: 30s
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

// RelayConfig configures websocket sessions.
type RelayConfig struct {
	// PingInterval is the keepalive ping period.
	// Default: 10s
	PingInterval Duration `yaml:"ping_interval"`
}

// RuntimeConfig identifies the runtime archive repository.
type RuntimeConfig struct {
	// Owner is the organization owning the runtime repository.
	Owner string `yaml:"owner"`

	// Repository is the runtime repository name.
	Repository string `yaml:"repository"`
}

// Release describes one playable artifact in the manifest.
type Release struct {
	// Name is the human-readable title.
	Name string `yaml:"name" json:"name"`

	// Organization owns the repository hosting the bundle.
	Organization string `yaml:"organization" json:"organization"`

	// Repository hosts the bundle releases.
	Repository string `yaml:"repository" json:"repository"`

	// Release is the bundle version, without the "v" tag prefix.
	Release string `yaml:"release" json:"release"`

	// Runtime is the runtime version the bundle was built against.
	Runtime string `yaml:"runtime" json:"runtime"`
}

// Default returns the default configuration. These defaults are a
// base before loading the config file, not a substitute for it: the
// config file is required.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Backend: BackendRedis,
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
		Asset: AssetConfig{
			TTL:          Duration(365 * 24 * time.Hour),
			FetchTimeout: Duration(30 * time.Second),
		},
		Relay: RelayConfig{
			PingInterval: Duration(10 * time.Second),
		},
	}
}

// Load loads configuration from the ARCADE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks - if ARCADE_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("ARCADE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ARCADE_CONFIG environment variable not set; " +
			"set it to the path of your arcade.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, fmt.Errorf("server.address is required"))
	}

	switch c.Store.Backend {
	case BackendRedis:
		if c.Store.Redis.Address == "" {
			errs = append(errs, fmt.Errorf("store.redis.address is required for the redis backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q",
			BackendRedis, BackendMemory, c.Store.Backend))
	}

	if c.Asset.TTL <= 0 {
		errs = append(errs, fmt.Errorf("asset.ttl must be positive"))
	}
	if c.Asset.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("asset.fetch_timeout must be positive"))
	}
	if c.Relay.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("relay.ping_interval must be positive"))
	}

	if c.Runtime.Owner == "" {
		errs = append(errs, fmt.Errorf("runtime.owner is required"))
	}
	if c.Runtime.Repository == "" {
		errs = append(errs, fmt.Errorf("runtime.repository is required"))
	}

	for i, release := range c.Releases {
		if release.Name == "" {
			errs = append(errs, fmt.Errorf("releases[%d].name is required", i))
		}
		if release.Organization == "" {
			errs = append(errs, fmt.Errorf("releases[%d].organization is required", i))
		}
		if release.Repository == "" {
			errs = append(errs, fmt.Errorf("releases[%d].repository is required", i))
		}
		if release.Release == "" {
			errs = append(errs, fmt.Errorf("releases[%d].release is required", i))
		}
		if release.Runtime == "" {
			errs = append(errs, fmt.Errorf("releases[%d].runtime is required", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
