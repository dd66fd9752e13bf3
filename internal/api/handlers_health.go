// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthLive handles liveness checks. It answers 200 while the process is
// up, whatever the state of its dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness checks. It answers 503 until the backend
// has initialized and while the store does not respond.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		rw.ServiceUnavailable("Not ready: " + err.Error())
		return
	}

	clients := 0
	if h.hub != nil {
		clients = h.hub.GetClientCount()
	}
	rw.Success(map[string]interface{}{
		"ready":             true,
		"websocket_clients": clients,
		"uptime":            time.Since(h.startTime).Seconds(),
	})
}
