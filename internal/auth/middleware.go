// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/communitymap/internal/logging"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "ocm_session"

// MiddlewareConfig holds configuration for the session middleware.
type MiddlewareConfig struct {
	CookieName     string
	SessionTTL     time.Duration
	SlidingSession bool
	CookieSecure   bool
	CookieSameSite http.SameSite
}

// DefaultMiddlewareConfig returns sensible defaults.
func DefaultMiddlewareConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		CookieName:     DefaultCookieName,
		SessionTTL:     24 * time.Hour,
		SlidingSession: true,
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// Middleware resolves the caller from a bearer token or session cookie.
type Middleware struct {
	store  SessionStore
	jwt    *JWTManager
	config *MiddlewareConfig
}

// NewMiddleware creates the middleware. jwt may be nil to disable bearer
// tokens.
func NewMiddleware(store SessionStore, jwt *JWTManager, config *MiddlewareConfig) *Middleware {
	if config == nil {
		config = DefaultMiddlewareConfig()
	}
	return &Middleware{store: store, jwt: jwt, config: config}
}

// Resolve identifies the caller of r without touching the context.
func (m *Middleware) Resolve(r *http.Request) Resolution {
	if token := bearerToken(r); token != "" && m.jwt != nil {
		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
			return Resolution{}
		}
		return Resolution{Subject: claims.ToSubject()}
	}

	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil || cookie.Value == "" {
		return Resolution{}
	}

	session, err := m.store.Get(r.Context(), cookie.Value)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return Resolution{}
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Session lookup error")
		return Resolution{Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
	}

	if m.config.SlidingSession {
		if err := m.store.Touch(r.Context(), session.ID, time.Now().Add(m.config.SessionTTL)); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to touch session")
		}
	}
	return Resolution{Subject: session.ToSubject()}
}

// Authenticate stores the resolution in the request context. Requests
// without credentials continue anonymously.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := m.Resolve(r)
		ctx := WithResolution(r.Context(), res)
		if res.Subject != nil {
			ctx = logging.ContextWithUserID(ctx, res.Subject.ID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a subject with 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSubject(r.Context()) == nil {
			http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession starts a session for subject, replacing oldSessionID if
// given, and sets the cookie.
func (m *Middleware) CreateSession(ctx context.Context, w http.ResponseWriter, subject *Subject, oldSessionID string) (*Session, error) {
	if oldSessionID != "" {
		//nolint:errcheck // best effort, the new session replaces it anyway
		m.store.Delete(ctx, oldSessionID)
	}

	session, err := NewSession(subject, m.config.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	m.SetSessionCookie(w, session.ID)
	return session, nil
}

// DestroySession deletes the session and clears the cookie.
func (m *Middleware) DestroySession(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	m.ClearSessionCookie(w)
	if sessionID == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

// SessionID returns the session cookie value of r, if any.
func (m *Middleware) SessionID(r *http.Request) string {
	if c, err := r.Cookie(m.config.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie sets the session cookie on the response.
func (m *Middleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(m.config.SessionTTL.Seconds()),
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

// ClearSessionCookie clears the session cookie.
func (m *Middleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.config.CookieSecure,
		HttpOnly: true,
		SameSite: m.config.CookieSameSite,
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
