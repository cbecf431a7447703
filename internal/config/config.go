// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

// Package config defines the Showfinder configuration structure and its
// layered loading: struct defaults, then an optional YAML file, then
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Showfinder server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	API      APIConfig      `koanf:"api"`
	Query    QueryConfig    `koanf:"query"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file path. ":memory:" for an in-memory store.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedMockData populates the shows table with sample data on startup.
	SeedMockData bool `koanf:"seed_mock_data"`
}

// APIConfig holds API-level limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// QueryConfig holds show query defaults applied when a request omits the
// corresponding filter.
type QueryConfig struct {
	// DefaultRadiusMiles applies when a center point is given without a radius.
	DefaultRadiusMiles float64 `koanf:"default_radius_miles"`

	// MaxRadiusMiles bounds client-supplied radii.
	MaxRadiusMiles float64 `koanf:"max_radius_miles"`

	// DefaultWindowDays sizes the date window (today .. today+N) applied
	// when a request supplies no date range.
	DefaultWindowDays int `koanf:"default_window_days"`

	// DefaultStatus is the status filter applied when none is given.
	DefaultStatus string `koanf:"default_status"`
}

// CacheConfig holds read-through cache settings for the query endpoint.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for inconsistencies after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1, 65535]", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be >= 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size %d must be >= api.default_page_size %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.Query.DefaultRadiusMiles <= 0 {
		return fmt.Errorf("query.default_radius_miles must be > 0, got %v", c.Query.DefaultRadiusMiles)
	}
	if c.Query.MaxRadiusMiles < c.Query.DefaultRadiusMiles {
		return fmt.Errorf("query.max_radius_miles %v must be >= query.default_radius_miles %v",
			c.Query.MaxRadiusMiles, c.Query.DefaultRadiusMiles)
	}
	if c.Query.DefaultWindowDays < 0 {
		return fmt.Errorf("query.default_window_days must be >= 0, got %d", c.Query.DefaultWindowDays)
	}
	if c.Query.DefaultStatus == "" {
		return fmt.Errorf("query.default_status must not be empty")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when cache is enabled, got %v", c.Cache.TTL)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be >= 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be > 0, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}
