package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	CatalogPath  string `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	WeightsDir   string `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`
	SessionStore string `json:"session_store" yaml:"session_store" toml:"session_store"`
	RedisAddr    string `json:"redis_addr" yaml:"redis_addr" toml:"redis_addr"`
	RedisDB      int    `json:"redis_db" yaml:"redis_db" toml:"redis_db"`
	// SessionTTL is a Go duration string such as "24h".
	SessionTTL   string `json:"session_ttl" yaml:"session_ttl" toml:"session_ttl"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// TTL parses SessionTTL; an empty value yields def.
func (c Config) TTL(def time.Duration) (time.Duration, error) {
	if c.SessionTTL == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("session_ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	return d, nil
}

// Validate checks values that have a closed set of options.
func (c Config) Validate() error {
	switch c.SessionStore {
	case "", StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("session_store redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown session_store %q", c.SessionStore)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("max_body_bytes must not be negative")
	}
	_, err := c.TTL(time.Hour)
	return err
}
