// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package authz

import (
	"net/http"

	"github.com/tomtom215/communitymap/internal/auth"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/models"
)

// Middleware enforces the policy on routes.
type Middleware struct {
	enforcer *Enforcer
	deny     func(w http.ResponseWriter, r *http.Request, status int)
}

// NewMiddleware creates a new authorization middleware. deny writes the
// rejection; nil uses http.Error.
func NewMiddleware(enforcer *Enforcer, deny func(w http.ResponseWriter, r *http.Request, status int)) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int) {
			http.Error(w, http.StatusText(status), status)
		}
	}
	return &Middleware{enforcer: enforcer, deny: deny}
}

// RoleOf returns the policy role of the request's caller.
func RoleOf(s *auth.Subject) string {
	if s == nil {
		return models.RoleAnonymous
	}
	if s.Role == "" {
		return models.RoleUser
	}
	return s.Role
}

// Authorize rejects callers whose role may not perform action on object.
// Anonymous callers get 401, signed-in ones 403.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetSubject(r.Context())
			allowed, err := m.enforcer.Enforce(RoleOf(subject), object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				m.deny(w, r, http.StatusInternalServerError)
				return
			}
			if !allowed {
				if subject == nil {
					m.deny(w, r, http.StatusUnauthorized)
				} else {
					m.deny(w, r, http.StatusForbidden)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
