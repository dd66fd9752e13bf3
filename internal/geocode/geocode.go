// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package geocode resolves free-text addresses for the locate box. Lookups
// go through a circuit breaker and an LRU cache so a slow or failing
// provider cannot stall page requests.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/communitymap/internal/cache"
	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
)

var (
	// ErrDisabled is returned when no provider is configured.
	ErrDisabled = errors.New("geocoding is disabled")

	// ErrEmptyAddress is returned for a blank query.
	ErrEmptyAddress = errors.New("address is required")

	// ErrUnavailable is returned while the breaker is open.
	ErrUnavailable = errors.New("geocoding temporarily unavailable")
)

const breakerName = "geocoder"

// Result is one match for an address.
type Result struct {
	Address  string          `json:"address"`
	Location models.Location `json:"location"`
}

// Provider looks addresses up.
type Provider interface {
	Geocode(ctx context.Context, address string) ([]Result, error)
}

// Service wraps a Provider with a breaker and a cache.
type Service struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[[]Result]
	cache    *cache.LRU[[]Result]
	timeout  time.Duration
}

// NewService creates a Service. A nil provider yields a service whose
// lookups fail with ErrDisabled.
func NewService(provider Provider, cfg config.GeocodeConfig) *Service {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	metrics.GeocodeBreakerState.Set(0)
	cb := gobreaker.NewCircuitBreaker[[]Result](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Callers canceling their own request says nothing about the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.GeocodeBreakerState.Set(stateToFloat(to))
		},
	})

	return &Service{
		provider: provider,
		cb:       cb,
		cache:    cache.NewLRU[[]Result](cfg.CacheSize, cfg.CacheTTL),
		timeout:  timeout,
	}
}

// Enabled reports whether a provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Lookup returns the matches for address, newest cached answer first.
func (s *Service) Lookup(ctx context.Context, address string) ([]Result, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	key := strings.ToLower(address)
	if results, ok := s.cache.Get(key); ok {
		metrics.GeocodeRequests.WithLabelValues("cache_hit").Inc()
		return results, nil
	}

	results, err := s.cb.Execute(func() ([]Result, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.provider.Geocode(ctx, address)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.GeocodeRequests.WithLabelValues("rejected").Inc()
			return nil, ErrUnavailable
		}
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	s.cache.Add(key, results)
	return results, nil
}

// BreakerState returns the breaker state name.
func (s *Service) BreakerState() string {
	return s.cb.State().String()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
