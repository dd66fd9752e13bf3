// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/communitymap/internal/logging"
)

// SessionStoreType defines the type of session storage backend.
type SessionStoreType string

const (
	// SessionStoreMemory uses in-memory storage (not persistent).
	SessionStoreMemory SessionStoreType = "memory"

	// SessionStoreBadger uses BadgerDB for persistent session storage.
	SessionStoreBadger SessionStoreType = "badger"
)

// SessionStoreFactory owns the database behind a session store.
type SessionStoreFactory struct {
	db *badger.DB
}

// NewSessionStoreFactory opens BadgerDB at path for the badger type. The
// memory type opens nothing. An empty path with the badger type opens an
// in-memory Badger instance.
func NewSessionStoreFactory(storeType SessionStoreType, path string) (*SessionStoreFactory, error) {
	factory := &SessionStoreFactory{}

	if storeType == SessionStoreBadger {
		opts := badger.DefaultOptions(path).WithLogger(badgerLogger{logging.WithComponent("badger")})
		if path == "" {
			opts = opts.WithInMemory(true)
		}
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		factory.db = db
	}

	return factory, nil
}

// CreateStore returns the store matching the factory's configuration.
func (f *SessionStoreFactory) CreateStore() SessionStore {
	if f.db != nil {
		return NewBadgerSessionStore(f.db)
	}
	return NewMemorySessionStore()
}

// Close closes the underlying BadgerDB if one was opened.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

// RunCleanup removes expired sessions every interval until ctx is done.
// For Badger it also runs value log GC.
func (f *SessionStoreFactory) RunCleanup(ctx context.Context, store SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup failed")
			} else if n > 0 {
				logging.Debug().Int("removed", n).Msg("Expired sessions removed")
			}
			if f.db != nil && !f.db.Opts().InMemory {
				// ErrNoRewrite just means there was nothing to collect.
				_ = f.db.RunValueLogGC(0.5)
			}
		}
	}
}

// badgerLogger routes Badger's logs through zerolog. Info is demoted to
// debug because Badger is chatty at startup.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(format, args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(format, args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(format, args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(format, args...)
}
