// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package events

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/models"
)

//nolint:gochecknoinits // quiet logs for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type delivery struct {
	kind     string
	data     interface{}
	audience []string
}

// recorder is a Broadcaster that records what it receives.
type recorder struct {
	mu  sync.Mutex
	got []delivery
	ch  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 256)}
}

func (r *recorder) BroadcastJSON(kind string, data interface{}) {
	r.mu.Lock()
	r.got = append(r.got, delivery{kind: kind, data: data})
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) SendToUsers(kind string, data interface{}, ids ...string) {
	r.mu.Lock()
	r.got = append(r.got, delivery{kind: kind, data: data, audience: ids})
	r.mu.Unlock()
	r.ch <- struct{}{}
}

// startRouter runs a forwarding router on bus until the test ends.
func startRouter(t *testing.T, bus *Bus, out Broadcaster) {
	t.Helper()
	r, err := NewRouter(DefaultRouterConfig(), bus, out)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		<-done
	})

	select {
	case <-r.Running():
	case <-time.After(10 * time.Second):
		t.Fatal("router did not start")
	}
}

func TestTopicFor(t *testing.T) {
	tests := []struct {
		payload interface{}
		want    string
		wantErr bool
	}{
		{&models.ObjectItem{}, TopicObjectCreated, false},
		{models.Comment{}, TopicCommentCreated, false},
		{&models.DirectMessage{}, TopicMessageCreated, false},
		{"nope", "", true},
	}
	for _, tt := range tests {
		got, err := TopicFor(tt.payload)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("TopicFor(%T) = %q, %v", tt.payload, got, err)
		}
	}
}

func exerciseBus(t *testing.T, bus *Bus) {
	t.Helper()
	rec := newRecorder()
	startRouter(t, bus, rec)

	ctx := context.Background()
	obj := &models.ObjectItem{ID: "o1", Type: models.ObjectTypeChat, Title: "hello", Author: "u1"}
	dm := &models.DirectMessage{ID: "m1", DMKey: "a-b", Author: "a", Recipient: "b", Content: "hi"}

	// Subscriptions over NATS become effective asynchronously, so publish
	// until the first event makes it through.
	var first delivery
	for i := 0; ; i++ {
		if err := bus.Publish(ctx, obj); err != nil {
			t.Fatalf("Publish(object) error = %v", err)
		}
		select {
		case <-rec.ch:
		case <-time.After(100 * time.Millisecond):
			if i == 50 {
				t.Fatal("no delivery")
			}
			continue
		}
		rec.mu.Lock()
		first = rec.got[0]
		rec.mu.Unlock()
		break
	}
	o, ok := first.data.(*models.ObjectItem)
	if first.kind != TopicObjectCreated || !ok || o.Title != "hello" || first.audience != nil {
		t.Errorf("object delivery = %+v", first)
	}

	if err := bus.Publish(ctx, dm); err != nil {
		t.Fatalf("Publish(dm) error = %v", err)
	}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-rec.ch:
		case <-deadline:
			t.Fatal("dm not delivered")
		}
		rec.mu.Lock()
		last := rec.got[len(rec.got)-1]
		rec.mu.Unlock()
		if last.kind != TopicMessageCreated {
			continue
		}
		if len(last.audience) != 2 || last.audience[0] != "a" || last.audience[1] != "b" {
			t.Errorf("dm delivery = %+v", last)
		}
		return
	}
}

func TestBus_GoChannel(t *testing.T) {
	bus, err := New(config.EventsConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	if bus.Transport() != TransportChannel || bus.URL() != "" || !bus.Ready() {
		t.Fatalf("transport = %q url = %q", bus.Transport(), bus.URL())
	}
	exerciseBus(t, bus)
}

func TestBus_EmbeddedNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a NATS server")
	}
	bus, err := New(config.EventsConfig{EmbeddedNATS: true, NATSHost: "127.0.0.1", NATSPort: -1}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	if bus.Transport() != TransportNATS || bus.URL() == "" || !bus.Ready() {
		t.Fatalf("transport = %q url = %q", bus.Transport(), bus.URL())
	}
	exerciseBus(t, bus)
}

func TestBus_Closed(t *testing.T) {
	bus, err := New(config.EventsConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if bus.Ready() {
		t.Error("closed bus reports ready")
	}
	if err := bus.Publish(context.Background(), &models.Comment{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() error = %v, want ErrClosed", err)
	}
}

func TestForwarder_DropsMalformed(t *testing.T) {
	rec := newRecorder()
	h := forwarder(TopicCommentCreated, rec, watermill.NopLogger{})
	if err := h(message.NewMessage("x", []byte("{not json"))); err != nil {
		t.Errorf("handler error = %v, want nil", err)
	}
	if len(rec.got) != 0 {
		t.Errorf("deliveries = %+v", rec.got)
	}
}

func TestLoggerAdapter(t *testing.T) {
	l := NewLoggerAdapter().With(watermill.LogFields{"k": "v"})
	l.Info("info", watermill.LogFields{"n": 1})
	l.Debug("debug", nil)
	l.Trace("trace", nil)
	l.Error("error", errors.New("boom"), nil)
}
