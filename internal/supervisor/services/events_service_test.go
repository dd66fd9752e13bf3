// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/events"
	"github.com/tomtom215/communitymap/internal/models"
)

var (
	_ suture.Service = (*EventRouterService)(nil)
	_ EventRouter    = (*events.Router)(nil)
)

type mockRouter struct {
	runErr     error
	returnLive bool
	closed     atomic.Int32
}

func (m *mockRouter) Run(ctx context.Context) error {
	if m.runErr != nil || m.returnLive {
		return m.runErr
	}
	<-ctx.Done()
	return nil
}

func (m *mockRouter) Close() error {
	m.closed.Add(1)
	return nil
}

func TestEventRouterService_Serve(t *testing.T) {
	t.Run("factory error", func(t *testing.T) {
		want := errors.New("no subscriber")
		svc := NewEventRouterService(func() (EventRouter, error) { return nil, want })
		if err := svc.Serve(context.Background()); !errors.Is(err, want) {
			t.Errorf("Serve = %v, want %v", err, want)
		}
	})

	t.Run("run error", func(t *testing.T) {
		want := errors.New("subscribe failed")
		r := &mockRouter{runErr: want}
		svc := NewEventRouterService(func() (EventRouter, error) { return r, nil })
		if err := svc.Serve(context.Background()); !errors.Is(err, want) {
			t.Errorf("Serve = %v, want %v", err, want)
		}
		if r.closed.Load() != 1 {
			t.Error("router not closed")
		}
	})

	t.Run("clean exit while live is a failure", func(t *testing.T) {
		r := &mockRouter{returnLive: true}
		svc := NewEventRouterService(func() (EventRouter, error) { return r, nil })
		if err := svc.Serve(context.Background()); !errors.Is(err, ErrRouterStopped) {
			t.Errorf("Serve = %v, want ErrRouterStopped", err)
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		r := &mockRouter{}
		svc := NewEventRouterService(func() (EventRouter, error) { return r, nil })
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve = %v, want DeadlineExceeded", err)
		}
		if r.closed.Load() != 1 {
			t.Error("router not closed")
		}
	})

	if got := NewEventRouterService(nil).String(); got != "event-router" {
		t.Errorf("String() = %q", got)
	}
}

type countingBroadcaster struct {
	delivered chan string
}

func (c *countingBroadcaster) BroadcastJSON(kind string, _ interface{}) {
	c.delivered <- kind
}

func (c *countingBroadcaster) SendToUsers(kind string, _ interface{}, _ ...string) {
	c.delivered <- kind
}

// A restarted service must deliver again, which needs a new watermill router.
func TestEventRouterService_RestartsWithFreshRouter(t *testing.T) {
	bus, err := events.New(config.EventsConfig{}, nil)
	if err != nil {
		t.Fatalf("events.New: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	out := &countingBroadcaster{delivered: make(chan string, 8)}
	var built atomic.Int32
	svc := NewEventRouterService(func() (EventRouter, error) {
		built.Add(1)
		return events.NewRouter(events.DefaultRouterConfig(), bus, out)
	})

	for round := 1; round <= 2; round++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		obj := &models.ObjectItem{ID: "o1", Type: models.ObjectTypeChat, Title: "hi", Author: "u1"}
		delivered := false
		for i := 0; i < 50 && !delivered; i++ {
			if err := bus.Publish(context.Background(), obj); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			select {
			case <-out.delivered:
				delivered = true
			case <-time.After(100 * time.Millisecond):
			}
		}
		if !delivered {
			t.Fatalf("round %d: no delivery", round)
		}

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("round %d: Serve = %v", round, err)
			}
		case <-time.After(15 * time.Second):
			t.Fatalf("round %d: Serve did not return", round)
		}
		// Drain deliveries from retried publishes.
		for len(out.delivered) > 0 {
			<-out.delivered
		}
	}
	if built.Load() != 2 {
		t.Errorf("built %d routers, want 2", built.Load())
	}
}
