// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package shell decides what a page request renders: the initializing
// placeholder, the splash, the embed configuration error, or the routed
// map view with its modal.
package shell

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/communitymap/internal/models"
)

// State is the shell lifecycle state for one request.
type State int

const (
	StateInitializing State = iota
	StateSplash
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateSplash:
		return "splash"
	default:
		return "ready"
	}
}

// Mode is the rendering mode of the ready state.
type Mode int

const (
	ModeFull Mode = iota
	ModeEmbedded
)

const (
	// EmbedBasename prefixes every embedded route.
	EmbedBasename = "/embed"

	// SplashCookie records when the client first loaded a page.
	SplashCookie = "ocm_splash"

	// ConfigErrorMessage is the whole response for an embed request without
	// an appId.
	ConfigErrorMessage = "Mandatory parameter appId is missing. Read https://github.com/opencommunitymap/communitymap-ui#embedding for more information"

	// DefaultSplashMinDuration is used when none is configured.
	DefaultSplashMinDuration = 2 * time.Second

	initRefresh = time.Second
	authRefresh = time.Second
)

// Backend is what the shell needs from the backend.
type Backend interface {
	Ready() bool
	ResolveAuth(r *http.Request) models.AuthState
}

// Config tunes the shell.
type Config struct {
	SplashMinDuration time.Duration
	CookieSecure      bool
}

// Shell resolves page requests.
type Shell struct {
	backend Backend
	cfg     Config
	now     func() time.Time
}

// New creates a Shell.
func New(b Backend, cfg Config) *Shell {
	if cfg.SplashMinDuration <= 0 {
		cfg.SplashMinDuration = DefaultSplashMinDuration
	}
	return &Shell{backend: b, cfg: cfg, now: time.Now}
}

// Page is the resolved rendering decision for a request.
type Page struct {
	State State
	Mode  Mode

	// Basename is "" in full mode and "/embed" in embedded mode.
	Basename string

	// ConfigError, when set, is the only thing to render.
	ConfigError string

	Route        Route
	RouteParam   string
	Params       InitialAppParams
	Embed        EmbedParams
	Auth         models.AuthState
	ShowLogo     bool
	ShowAdd      bool
	CloseURL     string
	RefreshAfter time.Duration

	// SplashCookie must be set on the response when non-nil.
	SplashCookie *http.Cookie

	rawQuery string
}

// Embedded reports whether the page is in embedded mode.
func (p Page) Embedded() bool { return p.Mode == ModeEmbedded }

// Link builds a path under the basename. Embedded links keep the query so
// appId survives navigation.
func (p Page) Link(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	link := p.Basename + path
	if p.Embedded() && p.rawQuery != "" {
		link += "?" + p.rawQuery
	}
	return link
}

// ObjectURL is where clicking an object navigates.
func (p Page) ObjectURL(id string) string {
	return p.Link("/object/" + id)
}

// IsEmbedPath reports whether path is under the embed basename.
func IsEmbedPath(path string) bool {
	return path == EmbedBasename || strings.HasPrefix(path, EmbedBasename+"/")
}

// Resolve runs the state machine for one page request. route is the matched
// entry of Routes and param its path parameter, if any.
func (s *Shell) Resolve(r *http.Request, route Route, param string) Page {
	params := NewInitialAppParams(ParseParams(r.URL.Query()))
	page := Page{
		Mode:       ModeFull,
		Route:      route,
		RouteParam: param,
		Params:     params,
		rawQuery:   r.URL.RawQuery,
	}
	if IsEmbedPath(r.URL.Path) {
		page.Mode = ModeEmbedded
		page.Basename = EmbedBasename
		page.Embed = params.Embed()
	}
	page.CloseURL = page.Link("/")

	// The embed configuration check comes before anything else.
	if page.Embedded() && params.AppID == "" {
		page.State = StateReady
		page.ConfigError = ConfigErrorMessage
		return page
	}

	if !s.backend.Ready() {
		page.State = StateInitializing
		page.RefreshAfter = initRefresh
		return page
	}

	page.Auth = s.backend.ResolveAuth(r)

	// Embedded pages skip the minimum splash time but still wait for auth.
	var remaining time.Duration
	if !page.Embedded() {
		remaining, page.SplashCookie = s.splashRemaining(r)
	}
	if remaining > 0 || !page.Auth.Resolved() {
		page.State = StateSplash
		page.ShowLogo = true
		page.RefreshAfter = remaining
		if !page.Auth.Resolved() && page.RefreshAfter < authRefresh {
			page.RefreshAfter = authRefresh
		}
		return page
	}

	page.State = StateReady
	page.ShowAdd = params.CanAdd
	return page
}

// splashRemaining returns how long the splash must still show and, on the
// first visit, the cookie that starts the clock.
func (s *Shell) splashRemaining(r *http.Request) (time.Duration, *http.Cookie) {
	now := s.now()

	if c, err := r.Cookie(SplashCookie); err == nil {
		if ms, perr := strconv.ParseInt(c.Value, 10, 64); perr == nil {
			first := time.UnixMilli(ms)
			if !first.After(now) {
				return s.cfg.SplashMinDuration - now.Sub(first), nil
			}
		}
	}

	cookie := &http.Cookie{
		Name:     SplashCookie,
		Value:    strconv.FormatInt(now.UnixMilli(), 10),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	return s.cfg.SplashMinDuration, cookie
}

// LinkFor builds a link under the basename of r, the same way Page.Link
// does, without resolving the page.
func LinkFor(r *http.Request, path string) string {
	p := Page{rawQuery: r.URL.RawQuery}
	if IsEmbedPath(r.URL.Path) {
		p.Mode = ModeEmbedded
		p.Basename = EmbedBasename
	}
	return p.Link(path)
}
