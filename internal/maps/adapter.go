// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package maps translates viewport events from the browser map widget into
// locations and bounding boxes, and carries the widget configuration.
package maps

import (
	"context"

	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
)

// LatLng is a coordinate pair as the widget reports it.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Corners is the south-west/north-east pair of the visible area.
type Corners struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// ChangeEvent is the raw viewport change posted by the widget.
type ChangeEvent struct {
	Center LatLng  `json:"center"`
	Bounds Corners `json:"bounds"`
	Zoom   int     `json:"zoom"`
}

// ChangeHandler receives the derived viewport.
type ChangeHandler func(ctx context.Context, center models.Location, bounds models.MapBounds, zoom int)

// Adapter forwards viewport changes to a handler.
type Adapter struct {
	onChange ChangeHandler
}

// NewAdapter returns an adapter calling onChange for every event. A nil
// handler discards events after logging them.
func NewAdapter(onChange ChangeHandler) *Adapter {
	return &Adapter{onChange: onChange}
}

// HandleChange derives the viewport from ev and passes it on unchanged.
func (a *Adapter) HandleChange(ctx context.Context, ev ChangeEvent) models.Viewport {
	vp := ToViewport(ev)

	logging.Ctx(ctx).Debug().
		Float64("lat", vp.Center.Latitude).
		Float64("lng", vp.Center.Longitude).
		Float64("min_lat", vp.Bounds.MinLat).
		Float64("max_lat", vp.Bounds.MaxLat).
		Float64("min_lng", vp.Bounds.MinLng).
		Float64("max_lng", vp.Bounds.MaxLng).
		Int("zoom", vp.Zoom).
		Msg("Map viewport changed")
	metrics.ViewportChanges.Inc()

	if a.onChange != nil {
		a.onChange(ctx, vp.Center, vp.Bounds, vp.Zoom)
	}
	return vp
}

// ToViewport maps a widget event to the app's types. The bounds are the
// sw/ne corners verbatim.
func ToViewport(ev ChangeEvent) models.Viewport {
	return models.Viewport{
		Center: models.Location{Latitude: ev.Center.Lat, Longitude: ev.Center.Lng},
		Bounds: BoundsFromCorners(ev.Bounds),
		Zoom:   ev.Zoom,
	}
}

// BoundsFromCorners returns minLat=sw.lat, maxLat=ne.lat, minLng=sw.lng,
// maxLng=ne.lng.
func BoundsFromCorners(c Corners) models.MapBounds {
	return models.MapBounds{
		MinLat: c.SW.Lat,
		MaxLat: c.NE.Lat,
		MinLng: c.SW.Lng,
		MaxLng: c.NE.Lng,
	}
}
