// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package shell

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/communitymap/internal/models"
)

type fakeBackend struct {
	ready bool
	auth  models.AuthState
}

func (f *fakeBackend) Ready() bool                                { return f.ready }
func (f *fakeBackend) ResolveAuth(*http.Request) models.AuthState { return f.auth }

var anonymous = models.AuthState{Status: models.AuthAnonymous}

func newTestShell(b Backend, now time.Time) *Shell {
	s := New(b, Config{SplashMinDuration: 2 * time.Second})
	s.now = func() time.Time { return now }
	return s
}

// seenSplash returns a request that first loaded a page long ago.
func seenSplash(target string, now time.Time) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.AddCookie(&http.Cookie{Name: SplashCookie, Value: strconv.FormatInt(now.Add(-time.Minute).UnixMilli(), 10)})
	return r
}

func mustRoute(t *testing.T, v View) Route {
	t.Helper()
	r, ok := RouteFor(v)
	if !ok {
		t.Fatalf("no route for %s", v)
	}
	return r
}

func TestResolve_EmbedWithoutAppID(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	// Not ready on purpose: the config check must come first.
	s := newTestShell(&fakeBackend{ready: false}, now)

	p := s.Resolve(httptest.NewRequest(http.MethodGet, "/embed", nil), mustRoute(t, ViewHome), "")
	if p.ConfigError != ConfigErrorMessage {
		t.Errorf("ConfigError = %q", p.ConfigError)
	}
	if !p.Embedded() || p.Basename != EmbedBasename {
		t.Errorf("mode = %v basename = %q", p.Mode, p.Basename)
	}
}

func TestResolve_EmbedWithAppID(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	s := newTestShell(&fakeBackend{ready: true, auth: anonymous}, now)

	// No splash cookie: embedded mode skips the minimum splash time.
	r := httptest.NewRequest(http.MethodGet, "/embed?appId=XYZ&filterOrigin=true", nil)
	p := s.Resolve(r, mustRoute(t, ViewHome), "")

	if p.ConfigError != "" {
		t.Errorf("ConfigError = %q, want none", p.ConfigError)
	}
	if p.State != StateReady {
		t.Errorf("State = %v, want ready", p.State)
	}
	if p.Embed.AppID != "XYZ" || p.Embed.OriginFilter != "XYZ" {
		t.Errorf("Embed = %+v", p.Embed)
	}
	if p.SplashCookie != nil {
		t.Error("embedded mode set a splash cookie")
	}
	if got := p.ObjectURL("o1"); got != "/embed/object/o1?appId=XYZ&filterOrigin=true" {
		t.Errorf("ObjectURL = %q", got)
	}
}

func TestResolve_Initializing(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	s := newTestShell(&fakeBackend{ready: false}, now)

	p := s.Resolve(seenSplash("/", now), mustRoute(t, ViewHome), "")
	if p.State != StateInitializing || p.ShowLogo {
		t.Errorf("State = %v ShowLogo = %v", p.State, p.ShowLogo)
	}
	if p.RefreshAfter <= 0 {
		t.Error("initializing page should refresh")
	}
}

func TestResolve_SplashOnFirstVisit(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	s := newTestShell(&fakeBackend{ready: true, auth: anonymous}, now)

	p := s.Resolve(httptest.NewRequest(http.MethodGet, "/", nil), mustRoute(t, ViewHome), "")
	if p.State != StateSplash || !p.ShowLogo {
		t.Fatalf("State = %v ShowLogo = %v", p.State, p.ShowLogo)
	}
	if p.SplashCookie == nil || p.SplashCookie.Name != SplashCookie {
		t.Fatalf("SplashCookie = %+v", p.SplashCookie)
	}
	if p.RefreshAfter != 2*time.Second {
		t.Errorf("RefreshAfter = %v", p.RefreshAfter)
	}

	// Half a second later the remaining time shrinks.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SplashCookie, Value: strconv.FormatInt(now.Add(-500*time.Millisecond).UnixMilli(), 10)})
	p = s.Resolve(r, mustRoute(t, ViewHome), "")
	if p.State != StateSplash || p.RefreshAfter != 1500*time.Millisecond {
		t.Errorf("State = %v RefreshAfter = %v", p.State, p.RefreshAfter)
	}
}

func TestResolve_SplashWhileAuthUnresolved(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	s := newTestShell(&fakeBackend{ready: true, auth: models.AuthState{Status: models.AuthUnresolved}}, now)

	tests := []struct {
		name string
		req  *http.Request
		mode Mode
	}{
		{"full", seenSplash("/", now), ModeFull},
		{"embedded", httptest.NewRequest(http.MethodGet, "/embed?appId=XYZ", nil), ModeEmbedded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := s.Resolve(tt.req, mustRoute(t, ViewHome), "")
			if p.State != StateSplash || p.Mode != tt.mode {
				t.Fatalf("State = %v Mode = %v, want splash %v", p.State, p.Mode, tt.mode)
			}
			if p.RefreshAfter < time.Second {
				t.Errorf("RefreshAfter = %v", p.RefreshAfter)
			}
			if p.ShowAdd {
				t.Error("add widget shown before auth resolved")
			}
		})
	}

	// Once auth resolves the embedded page is ready at once.
	s = newTestShell(&fakeBackend{ready: true, auth: anonymous}, now)
	p := s.Resolve(httptest.NewRequest(http.MethodGet, "/embed?appId=XYZ", nil), mustRoute(t, ViewHome), "")
	if p.State != StateReady {
		t.Errorf("State = %v, want ready", p.State)
	}
	if p.SplashCookie != nil {
		t.Error("embedded mode set a splash cookie")
	}
}

func TestResolve_Ready(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	user := &models.User{ID: "u1", Name: "alice"}
	s := newTestShell(&fakeBackend{ready: true, auth: models.AuthState{Status: models.AuthUser, User: user}}, now)

	p := s.Resolve(seenSplash("/?canAdd=false", now), mustRoute(t, ViewHome), "")
	if p.State != StateReady || p.Mode != ModeFull {
		t.Fatalf("State = %v Mode = %v", p.State, p.Mode)
	}
	if p.ShowAdd {
		t.Error("canAdd=false should hide the add widget")
	}
	if p.Auth.UserID() != "u1" {
		t.Errorf("Auth = %+v", p.Auth)
	}
}

func TestResolve_UserProfileCloseGoesHome(t *testing.T) {
	now := time.UnixMilli(time.Now().UnixMilli())
	s := newTestShell(&fakeBackend{ready: true, auth: anonymous}, now)

	route := mustRoute(t, ViewUserProfile)
	p := s.Resolve(seenSplash("/users/42", now), route, "42")

	if p.State != StateReady || p.Route.View != ViewUserProfile || !p.Route.Modal {
		t.Fatalf("page = %+v", p)
	}
	if p.RouteParam != "42" || p.Route.Size != SizeTiny {
		t.Errorf("param = %q size = %q", p.RouteParam, p.Route.Size)
	}
	if p.CloseURL != "/" {
		t.Errorf("CloseURL = %q, want /", p.CloseURL)
	}
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		view    View
		pattern string
		title   string
		size    string
	}{
		{ViewHome, "/", "", SizeDefault},
		{ViewObject, "/object/{objectId}", "", SizeDefault},
		{ViewDirectMessages, "/direct-messages/{dmKey}", "", SizeDefault},
		{ViewUserProfile, "/users/{userId}", "", SizeTiny},
		{ViewMyMessages, "/my-messages", "Messages", SizeTiny},
		{ViewTerms, "/terms", "Terms of Service", SizeLarge},
		{ViewPrivacy, "/privacy", "Privacy and Cookie Policy", SizeLarge},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			r := mustRoute(t, tt.view)
			if r.Pattern != tt.pattern || r.Title != tt.title || r.Size != tt.size {
				t.Errorf("route = %+v", r)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"true", true},
		{"false", false},
		{"42", 42.0},
		{"-1.5", -1.5},
		{"yes", "yes"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Coerce(tt.in); got != tt.want {
			t.Errorf("Coerce(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestInitialAppParams(t *testing.T) {
	tests := []struct {
		query      string
		appID      string
		autolocate bool
		filter     bool
		canAdd     bool
	}{
		{"", "", false, false, true},
		{"appId=123&autolocate=true", "123", true, false, true},
		{"canAdd=false&filterOrigin=true", "", false, true, false},
		{"canAdd=0", "", false, false, true},
		{"canAdd=no&autolocate=1", "", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			p := NewInitialAppParams(ParseParams(q))
			if p.AppID != tt.appID || p.Autolocate != tt.autolocate || p.FilterOrigin != tt.filter || p.CanAdd != tt.canAdd {
				t.Errorf("params = %+v", p)
			}
		})
	}

	q, _ := url.ParseQuery("appId=007")
	if got := ParseParams(q)[ParamAppID]; got != "007" {
		t.Errorf("appId coerced to %#v, want verbatim string", got)
	}
}

func TestIsEmbedPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/embed":         true,
		"/embed/":        true,
		"/embed/users/1": true,
		"/embedded":      false,
		"/":              false,
		"/object/embed":  false,
	} {
		if got := IsEmbedPath(path); got != want {
			t.Errorf("IsEmbedPath(%q) = %v", path, got)
		}
	}
}

func TestLinkFor(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/object", "/object/1"},
		{"/object?appId=X", "/object/1"},
		{"/embed/object?appId=X", "/embed/object/1?appId=X"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, tt.target, nil)
		if got := LinkFor(r, "/object/1"); got != tt.want {
			t.Errorf("LinkFor(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}
