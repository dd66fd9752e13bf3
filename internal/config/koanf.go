// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/communitymap/config.yaml",
	"/etc/communitymap/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is the dotenv file read before the environment layer.
var DotEnvPath = ".env"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3857,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/communitymap.duckdb",
			MaxMemory:    "512MB",
			Threads:      0,
			SeedDemoData: false,
		},
		Security: SecurityConfig{
			SessionTimeout:    24 * time.Hour,
			SessionStore:      "badger",
			SessionStorePath:  "/data/sessions",
			CookieSecure:      false,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			CommentsPerMinute: 10,
			CORSOrigins:       []string{"*"},
		},
		Maps: MapsConfig{
			DefaultLat:    42.69,
			DefaultLng:    23.32,
			DefaultZoom:   18,
			ViewportLimit: 500,
		},
		Shell: ShellConfig{
			SplashMinDuration: 2 * time.Second,
		},
		Geocode: GeocodeConfig{
			Enabled:          true,
			Timeout:          5 * time.Second,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			CacheSize:        1000,
			CacheTTL:         24 * time.Hour,
		},
		Events: EventsConfig{
			NATSHost:     "127.0.0.1",
			NATSPort:     4222,
			BufferSize:   256,
			CloseTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in layers, later layers winning:
//  1. defaults
//  2. optional YAML file
//  3. environment (after .env has been merged into it)
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv merges a dotenv file into the process environment. Variables
// already set in the environment are not overwritten. A missing file is fine.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are read as comma separated lists when they come from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.admin_users",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"ocm_env":      "server.environment",
	"environment":  "server.environment",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_demo_data":    "database.seed_demo_data",

	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"session_store":       "security.session_store",
	"session_store_path":  "security.session_store_path",
	"cookie_secure":       "security.cookie_secure",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"comments_per_minute": "security.comments_per_minute",
	"cors_origins":        "security.cors_origins",
	"admin_users":         "security.admin_users",
	"authz_policy_path":   "security.policy_path",

	"google_maps_api_key": "maps.api_key",
	"gmap_api_key":        "maps.api_key",
	"map_default_lat":     "maps.default_lat",
	"map_default_lng":     "maps.default_lng",
	"map_default_zoom":    "maps.default_zoom",
	"map_viewport_limit":  "maps.viewport_limit",

	"splash_min_duration": "shell.splash_min_duration",
	"public_url":          "shell.public_url",

	"geocode_enabled":           "geocode.enabled",
	"geocode_timeout":           "geocode.timeout",
	"geocode_failure_threshold": "geocode.failure_threshold",
	"geocode_open_timeout":      "geocode.open_timeout",
	"geocode_cache_size":        "geocode.cache_size",
	"geocode_cache_ttl":         "geocode.cache_ttl",

	"nats_url":             "events.nats_url",
	"nats_embedded":        "events.embedded_nats",
	"nats_host":            "events.nats_host",
	"nats_port":            "events.nats_port",
	"events_buffer_size":   "events.buffer_size",
	"events_close_timeout": "events.close_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
