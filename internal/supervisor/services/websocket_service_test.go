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

	"github.com/tomtom215/communitymap/internal/websocket"
)

var (
	_ suture.Service = (*WebSocketHubService)(nil)
	_ ContextHub     = (*websocket.Hub)(nil)
)

type mockContextHub struct {
	runErr   error
	runCount atomic.Int32
	clients  int
}

func (m *mockContextHub) GetClientCount() int { return m.clients }

func (m *mockContextHub) RunWithContext(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService_Serve(t *testing.T) {
	t.Run("stops with context", func(t *testing.T) {
		hub := &mockContextHub{}
		svc := NewWebSocketHubService(hub)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve = %v, want DeadlineExceeded", err)
		}
		if hub.runCount.Load() != 1 {
			t.Errorf("RunWithContext called %d times", hub.runCount.Load())
		}
	})

	t.Run("wraps hub errors with the service name", func(t *testing.T) {
		want := errors.New("hub failed")
		svc := NewWebSocketHubService(&mockContextHub{runErr: want, clients: 3})
		err := svc.Serve(context.Background())
		if !errors.Is(err, want) {
			t.Errorf("Serve = %v, want %v", err, want)
		}
		if err == nil || err.Error() != "websocket-hub: hub failed" {
			t.Errorf("error = %q", err)
		}
	})

	if got := NewWebSocketHubService(&mockContextHub{}).String(); got != "websocket-hub" {
		t.Errorf("String() = %q", got)
	}
}

func TestWebSocketHubService_RealHub(t *testing.T) {
	hub := websocket.NewHub()
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	hub.BroadcastJSON("object_created", map[string]string{"id": "1"})
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if n := hub.GetClientCount(); n != 0 {
		t.Errorf("clients = %d, want 0", n)
	}
}
