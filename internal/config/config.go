// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package config loads CommunityMap configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. A .env file in the working directory is read into
// the process environment first, so local development can keep secrets out
// of the shell profile.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Maps     MapsConfig     `koanf:"maps"`
	Shell    ShellConfig    `koanf:"shell"`
	Geocode  GeocodeConfig  `koanf:"geocode"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is the backend environment tag (OCM_ENV). "development"
	// enables demo seed data; "production" tightens validation.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path to the database file, or ":memory:".
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedDemoData inserts a handful of objects when the store is empty.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// SecurityConfig holds authentication, session and HTTP hardening settings.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// SessionStore is "badger" (persistent) or "memory".
	SessionStore     string `koanf:"session_store"`
	SessionStorePath string `koanf:"session_store_path"`
	CookieSecure     bool   `koanf:"cookie_secure"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CommentsPerMinute caps how fast one user can submit comments.
	CommentsPerMinute int `koanf:"comments_per_minute"`

	CORSOrigins []string `koanf:"cors_origins"`

	// AdminUsers are usernames granted the admin role on registration or login.
	AdminUsers []string `koanf:"admin_users"`

	// PolicyPath optionally overrides the embedded authorization policy.
	PolicyPath string `koanf:"policy_path"`
}

// MapsConfig holds map widget settings.
type MapsConfig struct {
	// APIKey is the map widget bootstrap key. It is also used for geocoding.
	APIKey        string  `koanf:"api_key"`
	DefaultLat    float64 `koanf:"default_lat"`
	DefaultLng    float64 `koanf:"default_lng"`
	DefaultZoom   int     `koanf:"default_zoom"`
	ViewportLimit int     `koanf:"viewport_limit"`
}

// ShellConfig holds settings for the page shell.
type ShellConfig struct {
	// SplashMinDuration is how long the splash stays up on a first visit.
	SplashMinDuration time.Duration `koanf:"splash_min_duration"`

	// PublicURL is used for absolute links in embed snippets.
	PublicURL string `koanf:"public_url"`
}

// GeocodeConfig holds address lookup settings.
type GeocodeConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
	CacheSize        int           `koanf:"cache_size"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
}

// EventsConfig holds the realtime event bus settings.
type EventsConfig struct {
	// NATSURL selects an external NATS server. Empty keeps events in process
	// unless EmbeddedNATS is set.
	NATSURL string `koanf:"nats_url"`

	// EmbeddedNATS starts a NATS server inside the process.
	EmbeddedNATS bool   `koanf:"embedded_nats"`
	NATSHost     string `koanf:"nats_host"`
	NATSPort     int    `koanf:"nats_port"`

	BufferSize   int           `koanf:"buffer_size"`
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the environment tag is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// IsDevelopment reports whether the environment tag is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from .env, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
