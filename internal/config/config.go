// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakKeys contains default/example API keys that must be rejected.
var knownWeakKeys = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"CRMKIT_DB_PATH" envDefault:"./data/crmkit.db"`
	APIKey     string `env:"CRMKIT_API_KEY,required"`
	ServerHost string `env:"CRMKIT_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"CRMKIT_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"CRMKIT_ENV" envDefault:"development"`
	LogLevel   string `env:"CRMKIT_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"CRMKIT_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"CRMKIT_CACHE_PREFIX" envDefault:"crmkit:"` // Redis key prefix
	CacheTTL     int    `env:"CRMKIT_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"CRMKIT_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Rate limiting for the public trigger endpoint
	TriggerRateLimit float64 `env:"CRMKIT_TRIGGER_RATE_LIMIT" envDefault:"10"` // Requests per second per IP
	TriggerRateBurst int     `env:"CRMKIT_TRIGGER_RATE_BURST" envDefault:"20"`

	// Mail dispatcher
	MailWorkers int `env:"CRMKIT_MAIL_WORKERS" envDefault:"3"`

	// GeoIP configuration
	GeoIPDBPath string `env:"CRMKIT_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinAPIKeyLength is the minimum required length for the API key.
const MinAPIKeyLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.APIKey) < MinAPIKeyLength {
		return nil, fmt.Errorf("CRMKIT_API_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure key with: openssl rand -base64 32",
			MinAPIKeyLength, len(cfg.APIKey))
	}

	for _, weak := range knownWeakKeys {
		if cfg.APIKey == weak {
			return nil, fmt.Errorf("CRMKIT_API_KEY is a known default value and must not be used; " +
				"generate a secure key with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.APIKey) {
		slog.Warn("CRMKIT_API_KEY has low character diversity; " +
			"consider generating a random key with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
