// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package shell

import (
	"net/url"
	"strconv"
)

// Query parameter names.
const (
	ParamAppID        = "appId"
	ParamAutolocate   = "autolocate"
	ParamFilterOrigin = "filterOrigin"
	ParamCanAdd       = "canAdd"
)

// Params holds coerced query values: bool, float64 or string.
type Params map[string]interface{}

// Coerce turns "true"/"false" into bools and numeric strings into float64.
// Anything else is returned unchanged.
func Coerce(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ParseParams coerces every query value except appId, which is kept
// verbatim. For repeated keys the first value wins.
func ParseParams(q url.Values) Params {
	p := make(Params, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		if key == ParamAppID {
			p[key] = values[0]
			continue
		}
		p[key] = Coerce(values[0])
	}
	return p
}

// Bool returns a boolean parameter. Missing or non-boolean values report
// ok=false.
func (p Params) Bool(key string) (value, ok bool) {
	v, found := p[key]
	if !found {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// String returns a string parameter, or "" when missing or not a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// InitialAppParams are the typed options read from the page URL.
type InitialAppParams struct {
	AppID        string
	Autolocate   bool
	FilterOrigin bool

	// CanAdd is false only when canAdd=false was given explicitly.
	CanAdd bool

	Raw Params
}

// NewInitialAppParams types the coerced params.
func NewInitialAppParams(p Params) InitialAppParams {
	ip := InitialAppParams{
		AppID:  p.String(ParamAppID),
		CanAdd: true,
		Raw:    p,
	}
	if v, ok := p.Bool(ParamAutolocate); ok {
		ip.Autolocate = v
	}
	if v, ok := p.Bool(ParamFilterOrigin); ok {
		ip.FilterOrigin = v
	}
	if v, ok := p.Bool(ParamCanAdd); ok && !v {
		ip.CanAdd = false
	}
	return ip
}

// EmbedParams are the options that apply in embedded mode.
type EmbedParams struct {
	AppID string

	// OriginFilter restricts the map to objects posted from AppID. Empty
	// means no filter.
	OriginFilter string
}

// Embed derives the embedded-mode options.
func (ip InitialAppParams) Embed() EmbedParams {
	ep := EmbedParams{AppID: ip.AppID}
	if ip.FilterOrigin {
		ep.OriginFilter = ip.AppID
	}
	return ep
}
