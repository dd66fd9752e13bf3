// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package maps

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/models"
)

func TestBoundsFromCorners_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		latS := rng.Float64()*180 - 90
		latN := rng.Float64()*180 - 90
		lngS := rng.Float64()*360 - 180
		lngN := rng.Float64()*360 - 180

		b := BoundsFromCorners(Corners{SW: LatLng{latS, lngS}, NE: LatLng{latN, lngN}})
		if b.MinLat != latS || b.MaxLat != latN || b.MinLng != lngS || b.MaxLng != lngN {
			t.Fatalf("corners (%v,%v)/(%v,%v) gave %+v", latS, lngS, latN, lngN, b)
		}
	}
}

func TestAdapter_ForwardsVerbatim(t *testing.T) {
	ev := ChangeEvent{
		Center: LatLng{Lat: 42.7, Lng: 23.3},
		Bounds: Corners{SW: LatLng{Lat: 42.6, Lng: 23.2}, NE: LatLng{Lat: 42.8, Lng: 23.4}},
		Zoom:   15,
	}

	var (
		calls  int
		center models.Location
		bounds models.MapBounds
		zoom   int
	)
	a := NewAdapter(func(_ context.Context, c models.Location, b models.MapBounds, z int) {
		calls++
		center, bounds, zoom = c, b, z
	})
	vp := a.HandleChange(context.Background(), ev)

	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	if center != (models.Location{Latitude: 42.7, Longitude: 23.3}) {
		t.Errorf("center = %+v", center)
	}
	want := models.MapBounds{MinLat: 42.6, MaxLat: 42.8, MinLng: 23.2, MaxLng: 23.4}
	if bounds != want || vp.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", bounds, want)
	}
	if zoom != 15 {
		t.Errorf("zoom = %d", zoom)
	}
}

func TestAdapter_NilHandler(t *testing.T) {
	vp := NewAdapter(nil).HandleChange(context.Background(), ChangeEvent{Zoom: 3})
	if vp.Zoom != 3 {
		t.Errorf("Zoom = %d", vp.Zoom)
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Center.Lat != 42.69 || o.Center.Lng != 23.32 || o.Zoom != 18 {
		t.Errorf("center/zoom = %+v/%d", o.Center, o.Zoom)
	}
	if !o.OverviewMapControl || o.StreetViewControl || !o.RotateControl || o.MapTypeControl {
		t.Errorf("controls = %+v", o)
	}
	if len(o.Styles) != 1 || o.Styles[0].FeatureType != "poi" ||
		o.Styles[0].ElementType != "labels" || o.Styles[0].Stylers[0].Visibility != "off" {
		t.Errorf("styles = %+v", o.Styles)
	}

	raw, err := o.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if decoded["streetViewControl"] != false || decoded["zoom"] != float64(18) {
		t.Errorf("decoded = %v", decoded)
	}
	if !strings.Contains(string(o.TemplateJS()), `"featureType":"poi"`) {
		t.Errorf("TemplateJS() = %s", o.TemplateJS())
	}
}

func TestOptionsFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.MapsConfig
		wantLat  float64
		wantZoom int
	}{
		{"zero keeps defaults", config.MapsConfig{}, DefaultLat, DefaultZoom},
		{"custom center and zoom", config.MapsConfig{DefaultLat: 51.5, DefaultLng: -0.12, DefaultZoom: 12}, 51.5, 12},
		{"invalid center ignored", config.MapsConfig{DefaultLat: 200, DefaultLng: 0}, DefaultLat, DefaultZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := OptionsFromConfig(tt.cfg)
			if o.Center.Lat != tt.wantLat || o.Zoom != tt.wantZoom {
				t.Errorf("got %+v zoom %d", o.Center, o.Zoom)
			}
		})
	}
}
