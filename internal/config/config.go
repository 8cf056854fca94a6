// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// FreelancersPath and InteractionsPath name the dataset files fitted at
	// startup and used by reloads that do not name their own. An empty
	// InteractionsPath disables the collaborative signal.
	FreelancersPath  string `koanf:"freelancers_path"`
	InteractionsPath string `koanf:"interactions_path"`

	// ReloadQueueSize bounds the number of pending reloads.
	ReloadQueueSize int `koanf:"reload_queue_size"`

	// RateLimitPerMinute caps POST /recommend per client IP; 0 disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// RequestTimeoutSeconds bounds request handling.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds"`

	// AdminToken, when set, is required as a bearer token on admin routes.
	AdminToken string `koanf:"admin_token"`

	// CacheAddr is the Redis address of the result cache; empty disables it.
	CacheAddr       string `koanf:"cache_addr"`
	CacheDB         int    `koanf:"cache_db"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	// SVDRank is the number of latent components of the collaborative model.
	SVDRank int `koanf:"svd_rank"`

	// MaxDF drops vocabulary terms present in more than this share of freelancers.
	MaxDF float64 `koanf:"max_df"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":8000",
		FreelancersPath:       "Datasets/synthetic_freelancers_dataset.csv",
		InteractionsPath:      "Datasets/interactions_data.csv",
		ReloadQueueSize:       4,
		RateLimitPerMinute:    600,
		RequestTimeoutSeconds: 30,
		CacheDB:               0,
		CacheTTLSeconds:       300,
		SVDRank:               5,
		MaxDF:                 0.8,
	}
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RequestTimeout returns the request handling deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.FreelancersPath) == "":
		return fmt.Errorf("%w: freelancers_path must not be empty", ErrInvalidConfig)
	case c.MaxDF <= 0 || c.MaxDF > 1:
		return fmt.Errorf("%w: max_df must be in (0, 1], got %v", ErrInvalidConfig, c.MaxDF)
	case c.SVDRank < 1:
		return fmt.Errorf("%w: svd_rank must be at least 1, got %d", ErrInvalidConfig, c.SVDRank)
	case c.ReloadQueueSize < 1:
		return fmt.Errorf("%w: reload_queue_size must be at least 1, got %d", ErrInvalidConfig, c.ReloadQueueSize)
	case c.RateLimitPerMinute < 0:
		return fmt.Errorf("%w: rate_limit_per_minute must not be negative", ErrInvalidConfig)
	case c.RequestTimeoutSeconds < 1:
		return fmt.Errorf("%w: request_timeout_seconds must be at least 1", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be at least 1", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
