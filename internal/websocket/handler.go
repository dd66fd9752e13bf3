// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/communitymap/internal/logging"
)

// Handler upgrades HTTP requests to hub clients.
type Handler struct {
	hub            *Hub
	allowedOrigins []string
	userID         func(r *http.Request) string
	upgrader       websocket.Upgrader
}

// NewHandler creates the /ws endpoint. userID extracts the signed-in user
// from the request and may return "". An empty allowedOrigins accepts only
// same-host origins; "*" accepts any.
func NewHandler(hub *Hub, allowedOrigins []string, userID func(r *http.Request) string) *Handler {
	h := &Handler{hub: hub, allowedOrigins: allowedOrigins, userID: userID}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade error")
		return
	}

	var userID string
	if h.userID != nil {
		userID = h.userID(r)
	}
	client := NewClient(h.hub, conn, userID)
	h.hub.Register <- client
	client.Start()
}

// checkOrigin rejects requests without an Origin header. Browsers always
// send one.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
