// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/communitymap/internal/logging"
)

// defaultDrainTimeout bounds the drain when the server timeout is unset.
const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService serves the map pages, the embed shell and /api/v1.
// On shutdown it lets in-flight form posts and API calls finish
// for up to drainTimeout.
type HTTPServerService struct {
	srv          HTTPServer
	drainTimeout time.Duration
}

// NewHTTPServerService wraps srv. A non-positive drainTimeout means 10s.
func NewHTTPServerService(srv HTTPServer, drainTimeout time.Duration) *HTTPServerService {
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}
	return &HTTPServerService{srv: srv, drainTimeout: drainTimeout}
}

// Serve implements suture.Service. A listen failure is returned so the api
// layer restarts the server with backoff.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	stopped := make(chan error, 1)
	go func() { stopped <- h.srv.ListenAndServe() }()

	select {
	case err := <-stopped:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: listen: %w", h, err)
	case <-ctx.Done():
		return h.drain(ctx, stopped)
	}
}

// drain shuts the server down once ctx has ended. The drain deadline is
// detached from ctx, which is already canceled.
func (h *HTTPServerService) drain(ctx context.Context, stopped <-chan error) error {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.drainTimeout)
	defer cancel()

	start := time.Now()
	err := h.srv.Shutdown(drainCtx)
	<-stopped

	logging.Info().
		Str("service", h.String()).
		Dur("took", time.Since(start)).
		Dur("timeout", h.drainTimeout).
		Bool("clean", err == nil).
		Msg("Stopped serving pages and API")
	if err != nil {
		return fmt.Errorf("%s: drain: %w", h, err)
	}
	return ctx.Err()
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
