// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package models holds the value types shared by the store, the backend and
// the HTTP layer.
package models

import (
	"fmt"
	"math"
)

// Location is a point in WGS84 degrees. It is a value type; pass it by copy.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Valid reports whether both coordinates are finite and in range.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) ||
		math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// MapBounds is the visible rectangle of the map. It is derived from the
// viewport on every change and never stored.
type MapBounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether loc lies inside b. A box whose MinLng is greater
// than its MaxLng crosses the antimeridian.
func (b MapBounds) Contains(loc Location) bool {
	if loc.Latitude < b.MinLat || loc.Latitude > b.MaxLat {
		return false
	}
	if b.CrossesAntimeridian() {
		return loc.Longitude >= b.MinLng || loc.Longitude <= b.MaxLng
	}
	return loc.Longitude >= b.MinLng && loc.Longitude <= b.MaxLng
}

// CrossesAntimeridian reports whether the box wraps past longitude 180.
func (b MapBounds) CrossesAntimeridian() bool {
	return b.MinLng > b.MaxLng
}

// Valid reports whether all four edges are finite and in range and the
// latitude edges are ordered.
func (b MapBounds) Valid() bool {
	sw := Location{Latitude: b.MinLat, Longitude: b.MinLng}
	ne := Location{Latitude: b.MaxLat, Longitude: b.MaxLng}
	return sw.Valid() && ne.Valid() && b.MinLat <= b.MaxLat
}

// Viewport is what the map reports after every change.
type Viewport struct {
	Center Location  `json:"center"`
	Bounds MapBounds `json:"bounds"`
	Zoom   int       `json:"zoom"`
}
