// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package auth provides password hashing, sessions, API tokens and the
// middleware that attaches the caller's identity to a request.
package auth

import (
	"context"
	"errors"
)

// Standard authentication errors.
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable indicates the session store could not answer.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Method says how a subject authenticated.
type Method string

const (
	MethodSession Method = "session"
	MethodJWT     Method = "jwt"
)

// Subject is an authenticated caller.
type Subject struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Method    Method `json:"method"`
	SessionID string `json:"-"`
}

// HasRole reports whether the subject has role.
func (s *Subject) HasRole(role string) bool {
	return s != nil && role != "" && s.Role == role
}

// Resolution is the outcome of identifying the caller of a request.
// Subject is nil for anonymous callers. Err is set when the lookup could
// not complete, in which case the caller's identity is unknown.
type Resolution struct {
	Subject *Subject
	Err     error
}

type contextKey string

const resolutionKey contextKey = "auth_resolution"

// WithResolution stores r in ctx.
func WithResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, r)
}

// ResolutionFromContext returns the stored resolution. ok is false when
// the middleware never ran.
func ResolutionFromContext(ctx context.Context) (Resolution, bool) {
	r, ok := ctx.Value(resolutionKey).(Resolution)
	return r, ok
}

// GetSubject returns the authenticated subject, or nil.
func GetSubject(ctx context.Context) *Subject {
	r, _ := ResolutionFromContext(ctx)
	return r.Subject
}

// WithSubject is shorthand for a resolved, signed-in context. Useful in tests.
func WithSubject(ctx context.Context, s *Subject) context.Context {
	return WithResolution(ctx, Resolution{Subject: s})
}
