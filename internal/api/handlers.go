// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package api serves the HTML pages, the form posts and the JSON API.
//
// Pages go through the shell state machine (initializing, splash, embed
// configuration error, ready) and are rendered with html/template. The JSON
// API under /api/v1 wraps every response in APIResponse. Both sides call the
// same backend, so rules are enforced in one place.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/communitymap/internal/backend"
	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/maps"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/shell"
	"github.com/tomtom215/communitymap/internal/websocket"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler holds the dependencies of every page and API handler.
type Handler struct {
	cfg       *config.Config
	backend   *backend.Backend
	shell     *shell.Shell
	hub       *websocket.Hub
	mapOpts   maps.Options
	startTime time.Time
}

// NewHandler creates the handler set. hub may be nil, which disables /ws.
func NewHandler(cfg *config.Config, b *backend.Backend, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:     cfg,
		backend: b,
		shell: shell.New(b, shell.Config{
			SplashMinDuration: cfg.Shell.SplashMinDuration,
			CookieSecure:      cfg.Security.CookieSecure,
		}),
		hub:       hub,
		mapOpts:   maps.OptionsFromConfig(cfg.Maps),
		startTime: time.Now(),
	}
}

// currentUser returns the signed-in user of r, or nil.
func (h *Handler) currentUser(r *http.Request) *models.User {
	state := h.backend.ResolveAuth(r)
	if !state.SignedIn() {
		return nil
	}
	return state.User
}

// decodeJSON reads a JSON body into v. On failure it writes 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			NewResponseWriter(w, r).Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		NewResponseWriter(w, r).BadRequest("Invalid JSON body")
		return false
	}
	return true
}

// localPath returns p if it is a path on this site, else fallback. It
// keeps redirects from leaving the host.
func localPath(p, fallback string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	return p
}
