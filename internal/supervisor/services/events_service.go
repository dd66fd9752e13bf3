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

// ErrRouterStopped is returned when the event router exits while its
// context is still live, so the supervisor restarts it.
var ErrRouterStopped = errors.New("event router stopped unexpectedly")

// EventRouter consumes bus topics until its context ends. *events.Router
// satisfies it.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterFactory builds a fresh router.
type EventRouterFactory func() (EventRouter, error)

// EventRouterService forwards bus events to websocket clients. A watermill
// router can only be run once, so every Serve builds a new one.
type EventRouterService struct {
	newRouter EventRouterFactory
	name      string
}

// NewEventRouterService wraps factory.
func NewEventRouterService(factory EventRouterFactory) *EventRouterService {
	return &EventRouterService{
		newRouter: factory,
		name:      "event-router",
	}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.newRouter()
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	defer func() {
		if err := router.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event router close failed")
		}
	}()

	err = router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ErrRouterStopped
}

func (s *EventRouterService) String() string {
	return s.name
}
