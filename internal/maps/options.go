// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package maps

import (
	"html/template"

	"github.com/goccy/go-json"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/models"
)

// Default widget settings.
const (
	DefaultLat  = 42.69
	DefaultLng  = 23.32
	DefaultZoom = 18
)

// Styler is one entry of a map style rule.
type Styler struct {
	Visibility string `json:"visibility,omitempty"`
}

// Style is a Google Maps style rule.
type Style struct {
	FeatureType string   `json:"featureType,omitempty"`
	ElementType string   `json:"elementType,omitempty"`
	Stylers     []Styler `json:"stylers"`
}

// Options configures the browser map widget.
type Options struct {
	Center             LatLng  `json:"center"`
	Zoom               int     `json:"zoom"`
	OverviewMapControl bool    `json:"overviewMapControl"`
	StreetViewControl  bool    `json:"streetViewControl"`
	RotateControl      bool    `json:"rotateControl"`
	MapTypeControl     bool    `json:"mapTypeControl"`
	Styles             []Style `json:"styles"`
}

// DefaultStyles hides point-of-interest labels.
func DefaultStyles() []Style {
	return []Style{{
		FeatureType: "poi",
		ElementType: "labels",
		Stylers:     []Styler{{Visibility: "off"}},
	}}
}

// DefaultOptions returns the widget configuration used when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		Center:             LatLng{Lat: DefaultLat, Lng: DefaultLng},
		Zoom:               DefaultZoom,
		OverviewMapControl: true,
		StreetViewControl:  false,
		RotateControl:      true,
		MapTypeControl:     false,
		Styles:             DefaultStyles(),
	}
}

// OptionsFromConfig applies configured center and zoom over the defaults.
func OptionsFromConfig(cfg config.MapsConfig) Options {
	opts := DefaultOptions()
	center := models.Location{Latitude: cfg.DefaultLat, Longitude: cfg.DefaultLng}
	if (cfg.DefaultLat != 0 || cfg.DefaultLng != 0) && center.Valid() {
		opts.Center = LatLng{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng}
	}
	if cfg.DefaultZoom > 0 {
		opts.Zoom = cfg.DefaultZoom
	}
	return opts
}

// WithCenter returns a copy centered on loc.
func (o Options) WithCenter(loc models.Location) Options {
	o.Center = LatLng{Lat: loc.Latitude, Lng: loc.Longitude}
	return o
}

// JSON serialises the options for the page.
func (o Options) JSON() ([]byte, error) {
	return json.Marshal(o)
}

// TemplateJS returns the options as a JS literal safe to embed in a script
// element.
func (o Options) TemplateJS() template.JS {
	b, err := o.JSON()
	if err != nil {
		return template.JS("{}")
	}
	return template.JS(b) //nolint:gosec // marshalled from typed struct
}
