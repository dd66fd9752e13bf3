// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
)

// Broadcaster receives decoded events. The websocket hub implements it.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
	SendToUsers(messageType string, data interface{}, userIDs ...string)
}

// RouterConfig holds configuration for the forwarding router.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
}

// DefaultRouterConfig returns defaults for the router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
	}
}

// Router forwards bus events to a Broadcaster.
type Router struct {
	router *message.Router
	logger watermill.LoggerAdapter
}

// NewRouter creates a router with one consumer handler per topic.
func NewRouter(cfg RouterConfig, bus *Bus, out Broadcaster) (*Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		Logger:          bus.logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	for _, topic := range Topics {
		wmRouter.AddConsumerHandler("forward_"+topic, topic, bus.Subscriber(), forwarder(topic, out, bus.logger))
	}

	return &Router{router: wmRouter, logger: bus.logger}, nil
}

// forwarder decodes a message and hands it to out. Direct messages only
// reach their two participants.
func forwarder(topic string, out Broadcaster, logger watermill.LoggerAdapter) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		payload, err := decode(topic, msg.Payload)
		if err != nil {
			// Malformed payloads will not decode on retry either.
			logger.Error("Dropping undecodable event", err, watermill.LogFields{"message_uuid": msg.UUID})
			return nil
		}

		if dm, ok := payload.(*models.DirectMessage); ok {
			out.SendToUsers(topic, dm, dm.Author, dm.Recipient)
		} else {
			out.BroadcastJSON(topic, payload)
		}
		metrics.EventsDelivered.WithLabelValues(topic).Inc()
		return nil
	}
}

// Run blocks until ctx is canceled or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running returns a channel closed once all handlers are subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for handlers.
func (r *Router) Close() error {
	return r.router.Close()
}
