// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/communitymap/internal/auth"
)

// SessionCleaner sweeps expired sessions on a ticker until its context
// ends. *auth.SessionStoreFactory satisfies it.
type SessionCleaner interface {
	RunCleanup(ctx context.Context, store auth.SessionStore, interval time.Duration)
}

// SessionCleanupService removes expired sessions from the store.
type SessionCleanupService struct {
	cleaner  SessionCleaner
	store    auth.SessionStore
	interval time.Duration
	name     string
}

// NewSessionCleanupService wraps cleaner. A non-positive interval means
// five minutes.
func NewSessionCleanupService(cleaner SessionCleaner, store auth.SessionStore, interval time.Duration) *SessionCleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionCleanupService{
		cleaner:  cleaner,
		store:    store,
		interval: interval,
		name:     "session-cleanup",
	}
}

// Serve implements suture.Service.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	s.cleaner.RunCleanup(ctx, s.store, s.interval)
	return ctx.Err()
}

func (s *SessionCleanupService) String() string {
	return s.name
}
