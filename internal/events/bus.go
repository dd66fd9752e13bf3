// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/metrics"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Transport names for logs and health.
const (
	TransportChannel = "gochannel"
	TransportNATS    = "nats"
)

// Bus publishes content events and hands them to subscribers.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	logger     watermill.LoggerAdapter
	transport  string
	url        string

	mu     sync.RWMutex
	closed bool
}

// New creates a bus for cfg. With an empty NATS URL and no embedded server
// events stay in process.
func New(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	b := &Bus{logger: logger, url: cfg.NATSURL}

	if cfg.EmbeddedNATS {
		srv, err := NewEmbeddedServer(cfg.NATSHost, cfg.NATSPort)
		if err != nil {
			return nil, err
		}
		b.server = srv
		b.url = srv.ClientURL()
		logging.Info().Str("url", b.url).Msg("Embedded NATS server started")
	}

	if b.url == "" {
		buffer := int64(cfg.BufferSize)
		if buffer <= 0 {
			buffer = 256
		}
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger)
		b.publisher, b.subscriber = ch, ch
		b.transport = TransportChannel
		return b, nil
	}

	if err := b.connectNATS(cfg); err != nil {
		b.shutdownServer()
		return nil, err
	}
	b.transport = TransportNATS
	return b, nil
}

func (b *Bus) connectNATS(cfg config.EventsConfig) error {
	closeTimeout := cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 10 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("communitymap"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				b.logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			b.logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	// Core NATS without JetStream: realtime updates are fire and forget,
	// and every instance must see every event, so there is no queue group.
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         b.url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		return fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              b.url,
		SubscribersCount: 1,
		CloseTimeout:     closeTimeout,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, b.logger)
	if err != nil {
		_ = pub.Close()
		return fmt.Errorf("create watermill subscriber: %w", err)
	}

	b.publisher, b.subscriber = pub, sub
	return nil
}

// Transport returns the transport in use.
func (b *Bus) Transport() string {
	return b.transport
}

// URL returns the NATS URL, or "" for the in-process transport.
func (b *Bus) URL() string {
	return b.url
}

// Subscriber returns the subscriber side of the bus.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// Publish encodes payload as JSON and publishes it on the payload's topic.
func (b *Bus) Publish(ctx context.Context, payload interface{}) error {
	topic, err := TopicFor(payload)
	if err != nil {
		return err
	}
	return b.PublishTo(ctx, topic, payload)
}

// PublishTo encodes payload as JSON and publishes it on topic.
func (b *Bus) PublishTo(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// Ready reports whether the bus can publish.
func (b *Bus) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	if b.server != nil {
		return b.server.IsRunning()
	}
	return true
}

// Close closes the publisher, the subscriber and the embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, err)
	}
	// The in-process channel is both publisher and subscriber.
	if b.transport == TransportNATS {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.shutdownServer()
	return errors.Join(errs...)
}

func (b *Bus) shutdownServer() {
	if b.server != nil {
		b.server.Shutdown()
	}
}
