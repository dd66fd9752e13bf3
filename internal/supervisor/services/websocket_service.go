// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/communitymap/internal/logging"
)

// ContextHub is the realtime hub behind /ws. *websocket.Hub satisfies it.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
	GetClientCount() int
}

// WebSocketHubService runs the loop that pushes object, comment and
// message events to open map pages.
type WebSocketHubService struct {
	hub ContextHub
}

// NewWebSocketHubService wraps hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service. Open pages reconnect on their own after
// a restart, so a hub failure is returned for the supervisor to retry.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	err := w.hub.RunWithContext(ctx)

	logging.Info().
		Str("service", w.String()).
		Int("clients", w.hub.GetClientCount()).
		Msg("Realtime hub stopped")
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w", w, err)
}

func (w *WebSocketHubService) String() string {
	return "websocket-hub"
}
