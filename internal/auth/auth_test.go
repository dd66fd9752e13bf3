// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/communitymap/internal/config"
)

const testSecret = "test-secret-that-is-at-least-32-characters-long"

func newTestJWT(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: timeout})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	m := newTestJWT(t, time.Hour)

	token, err := m.GenerateToken("u1", "alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	s := claims.ToSubject()
	if s.ID != "u1" || s.Username != "alice" || s.Role != "admin" || s.Method != MethodJWT {
		t.Errorf("subject = %+v", s)
	}
}

func TestJWT_Rejects(t *testing.T) {
	m := newTestJWT(t, time.Hour)
	good, _ := m.GenerateToken("u1", "alice", "user")

	other, _ := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 40), SessionTimeout: time.Hour})
	foreign, _ := other.GenerateToken("u1", "alice", "user")

	expired, _ := newTestJWT(t, -time.Minute).GenerateToken("u1", "alice", "user")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: tokenIssuer},
	})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"tampered", good[:len(good)-2] + "xx"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", noneToken},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) error = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) error = %v", err)
	}
	if err := CheckPassword("!", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(bad hash) error = %v", err)
	}
}

// storeContract runs the same checks against every SessionStore.
func storeContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	subject := &Subject{ID: "u1", Username: "alice", Role: "user"}

	s, err := NewSession(subject, time.Hour)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" || got.Username != "alice" || got.Role != "user" {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}

	if err := store.Touch(ctx, s.ID, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Get(after expiry) error = %v", err)
	}
	if n, err := store.CleanupExpired(ctx); err != nil || n != 1 {
		t.Errorf("CleanupExpired() = %d, %v", n, err)
	}

	for i := 0; i < 2; i++ {
		extra, _ := NewSession(subject, time.Hour)
		if err := store.Create(ctx, extra); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if n, err := store.DeleteByUserID(ctx, "u1"); err != nil || n != 2 {
		t.Errorf("DeleteByUserID() = %d, %v", n, err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestMemorySessionStore(t *testing.T) {
	storeContract(t, NewMemorySessionStore())
}

func TestBadgerSessionStore(t *testing.T) {
	f, err := NewSessionStoreFactory(SessionStoreBadger, "")
	if err != nil {
		t.Fatalf("NewSessionStoreFactory() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	store := f.CreateStore()
	if _, ok := store.(*BadgerSessionStore); !ok {
		t.Fatalf("CreateStore() = %T", store)
	}
	storeContract(t, store)
}

func TestSessionStoreFactory_Memory(t *testing.T) {
	f, err := NewSessionStoreFactory(SessionStoreMemory, "")
	if err != nil {
		t.Fatalf("NewSessionStoreFactory() error = %v", err)
	}
	if _, ok := f.CreateStore().(*MemorySessionStore); !ok {
		t.Error("expected memory store")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// failingStore simulates a store that cannot answer.
type failingStore struct{ *MemorySessionStore }

func (failingStore) Get(context.Context, string) (*Session, error) {
	return nil, errors.New("disk on fire")
}

func TestMiddleware_Resolve(t *testing.T) {
	store := NewMemorySessionStore()
	jm := newTestJWT(t, time.Hour)
	cfg := DefaultMiddlewareConfig()
	mw := NewMiddleware(store, jm, cfg)

	rec := httptest.NewRecorder()
	session, err := mw.CreateSession(context.Background(), rec, &Subject{ID: "u1", Username: "alice", Role: "user"}, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	setCookie := rec.Result().Cookies()
	if len(setCookie) != 1 || setCookie[0].Name != DefaultCookieName || !setCookie[0].HttpOnly {
		t.Fatalf("cookies = %+v", setCookie)
	}

	token, _ := jm.GenerateToken("u2", "bob", "admin")

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		mw       *Middleware
		wantUser string
		wantErr  bool
	}{
		{"anonymous", func(*http.Request) {}, mw, "", false},
		{"session cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: session.ID}) }, mw, "u1", false},
		{"unknown cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "nope"}) }, mw, "", false},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, mw, "u2", false},
		{"bad bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, mw, "", false},
		{
			"store failure is unresolved",
			func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: session.ID}) },
			NewMiddleware(failingStore{store}, jm, cfg), "", true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			res := tt.mw.Resolve(r)
			if (res.Err != nil) != tt.wantErr {
				t.Errorf("Err = %v, wantErr %v", res.Err, tt.wantErr)
			}
			var got string
			if res.Subject != nil {
				got = res.Subject.ID
			}
			if got != tt.wantUser {
				t.Errorf("subject = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestMiddleware_AuthenticateAndRequire(t *testing.T) {
	store := NewMemorySessionStore()
	mw := NewMiddleware(store, nil, nil)

	var seen *Subject
	h := mw.Authenticate(mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d", rec.Code)
	}

	s, _ := NewSession(&Subject{ID: "u1", Username: "alice"}, time.Hour)
	_ = store.Create(context.Background(), s)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: s.ID})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent || seen == nil || seen.ID != "u1" || seen.SessionID != s.ID {
		t.Errorf("status = %d, subject = %+v", rec.Code, seen)
	}

	rec = httptest.NewRecorder()
	if err := mw.DestroySession(context.Background(), rec, s.ID); err != nil {
		t.Fatalf("DestroySession() error = %v", err)
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("clear cookie = %+v", c)
	}
	if store.Len() != 0 {
		t.Errorf("store.Len() = %d after destroy", store.Len())
	}
}
