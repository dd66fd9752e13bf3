// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/models"
)

type fakeProvider struct {
	calls   atomic.Int32
	err     error
	results []Result
}

func (f *fakeProvider) Geocode(context.Context, string) ([]Result, error) {
	f.calls.Add(1)
	return f.results, f.err
}

func testConfig() config.GeocodeConfig {
	return config.GeocodeConfig{
		Enabled:          true,
		Timeout:          time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		CacheSize:        10,
		CacheTTL:         time.Minute,
	}
}

func TestLookup_Disabled(t *testing.T) {
	s := NewService(nil, testConfig())
	if _, err := s.Lookup(context.Background(), "Sofia"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Lookup() error = %v, want ErrDisabled", err)
	}

	var nilService *Service
	if nilService.Enabled() {
		t.Error("nil service reports enabled")
	}
}

func TestLookup_EmptyAddress(t *testing.T) {
	p := &fakeProvider{}
	s := NewService(p, testConfig())
	if _, err := s.Lookup(context.Background(), "   "); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("Lookup() error = %v", err)
	}
	if p.calls.Load() != 0 {
		t.Error("provider called for blank address")
	}
}

func TestLookup_Caches(t *testing.T) {
	p := &fakeProvider{results: []Result{{Address: "Sofia, Bulgaria", Location: models.Location{Latitude: 42.69, Longitude: 23.32}}}}
	s := NewService(p, testConfig())

	for _, q := range []string{"Sofia", " sofia ", "SOFIA"} {
		got, err := s.Lookup(context.Background(), q)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", q, err)
		}
		if len(got) != 1 || got[0].Address != "Sofia, Bulgaria" {
			t.Errorf("Lookup(%q) = %+v", q, got)
		}
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestLookup_BreakerOpens(t *testing.T) {
	p := &fakeProvider{err: errors.New("upstream down")}
	s := NewService(p, testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.Lookup(ctx, "a"); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d error = %v, want provider error", i, err)
		}
	}
	if _, err := s.Lookup(ctx, "a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if s.BreakerState() != "open" {
		t.Errorf("BreakerState() = %q", s.BreakerState())
	}
	if n := p.calls.Load(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestLookup_CanceledDoesNotTrip(t *testing.T) {
	p := &fakeProvider{err: context.Canceled}
	s := NewService(p, testConfig())
	for i := 0; i < 5; i++ {
		_, _ = s.Lookup(context.Background(), "a")
	}
	if s.BreakerState() != "closed" {
		t.Errorf("BreakerState() = %q", s.BreakerState())
	}
}

func TestGoogleProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "" || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Sofia, Bulgaria","geometry":{"location":{"lat":42.6977,"lng":23.3219}}}]}`))
	}))
	defer srv.Close()

	p, err := NewGoogleProvider("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleProvider() error = %v", err)
	}
	got, err := p.Geocode(context.Background(), "Sofia")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	want := Result{Address: "Sofia, Bulgaria", Location: models.Location{Latitude: 42.6977, Longitude: 23.3219}}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Geocode() = %+v", got)
	}
}

func TestNewGoogleProvider_RequiresKey(t *testing.T) {
	if _, err := NewGoogleProvider("", ""); err == nil {
		t.Error("expected error without an API key")
	}
}
