// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/communitymap/internal/logging"
)

// minJWTSecretLength matches the HS256 key size.
const minJWTSecretLength = 32

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateMaps(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Environment == "" {
		return fmt.Errorf("OCM_ENV must not be empty")
	}
	if c.Shell.SplashMinDuration < 0 {
		return fmt.Errorf("SPLASH_MIN_DURATION must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.SessionStore {
	case "badger":
		if c.Security.SessionStorePath == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	case "memory":
	default:
		return fmt.Errorf("SESSION_STORE must be badger or memory, got %q", c.Security.SessionStore)
	}

	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.IsProduction() && c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when OCM_ENV=production")
	}

	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Security.CommentsPerMinute < 1 {
		return fmt.Errorf("COMMENTS_PER_MINUTE must be positive")
	}

	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed when OCM_ENV=production; list the allowed origins")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateMaps() error {
	lat, lng := c.Maps.DefaultLat, c.Maps.DefaultLng
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("MAP_DEFAULT_LAT must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("MAP_DEFAULT_LNG must be between -180 and 180")
	}
	if c.Maps.DefaultZoom < 0 || c.Maps.DefaultZoom > 22 {
		return fmt.Errorf("MAP_DEFAULT_ZOOM must be between 0 and 22")
	}
	if c.Maps.ViewportLimit < 1 {
		return fmt.Errorf("MAP_VIEWPORT_LIMIT must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 1 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be positive")
	}
	if c.Events.EmbeddedNATS && c.Events.NATSURL != "" {
		return fmt.Errorf("NATS_EMBEDDED and NATS_URL are mutually exclusive")
	}
	if c.Events.EmbeddedNATS && (c.Events.NATSPort < 1 || c.Events.NATSPort > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
