// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/tomtom215/communitymap/internal/models"
)

// GoogleProvider geocodes with the Google Maps Geocoding API.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider creates a provider for apiKey. baseURL overrides the
// API endpoint and is meant for tests.
func NewGoogleProvider(apiKey, baseURL string) (*GoogleProvider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

// Geocode implements Provider. No match is an empty slice, not an error.
func (p *GoogleProvider) Geocode(ctx context.Context, address string) ([]Result, error) {
	resp, err := p.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp))
	for _, r := range resp {
		results = append(results, Result{
			Address: r.FormattedAddress,
			Location: models.Location{
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			},
		})
	}
	return results, nil
}
