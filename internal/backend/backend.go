// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package backend is the application's data SDK. Pages and API handlers
// call it to resolve the current user, read and post content, and exchange
// direct messages. It owns the rules (who may do what, how input is
// checked) while storage, sessions and delivery are injected.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tomtom215/communitymap/internal/auth"
	"github.com/tomtom215/communitymap/internal/authz"
	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/geocode"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/models"
)

var (
	// ErrNotReady is returned before Init has completed.
	ErrNotReady = errors.New("backend not ready")

	// ErrUnauthorized is returned when an operation needs a signed-in user.
	ErrUnauthorized = errors.New("sign in required")

	// ErrForbidden is returned when the user may not perform the operation.
	ErrForbidden = errors.New("not allowed")

	// ErrRateLimited is returned when a user posts too fast.
	ErrRateLimited = errors.New("too many requests, slow down")

	// ErrNotFound is returned for unknown objects, users or conversations.
	ErrNotFound = database.ErrNotFound

	// ErrUsernameTaken is returned by Register for an existing name.
	ErrUsernameTaken = errors.New("username already taken")
)

// Store is the persistence the backend needs. *database.DB implements it.
type Store interface {
	Ping(ctx context.Context) error
	SeedDemoData(ctx context.Context) error

	InsertObject(ctx context.Context, o *models.ObjectItem) error
	GetObject(ctx context.Context, id string) (*models.ObjectItem, error)
	ObjectsInBounds(ctx context.Context, b models.MapBounds, f database.ObjectFilter) ([]models.ObjectItem, error)
	ObjectsByAuthor(ctx context.Context, author string, limit int) ([]models.ObjectItem, error)
	DeleteObject(ctx context.Context, id string) error

	InsertComment(ctx context.Context, c *models.Comment) error
	Comments(ctx context.Context, objectID string) ([]models.Comment, error)

	InsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	SetUserRole(ctx context.Context, id, role string) error

	InsertMessage(ctx context.Context, m *models.DirectMessage) error
	Messages(ctx context.Context, dmKey string, limit int) ([]models.DirectMessage, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
}

// Publisher announces new content. *events.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// Geocoder resolves addresses. *geocode.Service implements it.
type Geocoder interface {
	Lookup(ctx context.Context, address string) ([]geocode.Result, error)
}

// Deps are the collaborators of a Backend. Events and Geocoder may be nil.
type Deps struct {
	Store    Store
	Sessions *auth.Middleware
	JWT      *auth.JWTManager
	Enforcer *authz.Enforcer
	Events   Publisher
	Geocoder Geocoder
}

// Backend implements the application operations.
type Backend struct {
	cfg   *config.Config
	deps  Deps
	ready atomic.Bool

	limiter *userLimiter
}

// New creates a backend. It is not ready until Init succeeds.
func New(cfg *config.Config, deps Deps) *Backend {
	return &Backend{
		cfg:     cfg,
		deps:    deps,
		limiter: newUserLimiter(cfg.Security.CommentsPerMinute),
	}
}

// Init verifies the store and seeds demo content for the development
// environment. Any error is fatal for the caller.
func (b *Backend) Init(ctx context.Context, env string) error {
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.deps.Store.Ping(pingCtx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}

	if strings.EqualFold(env, "development") || b.cfg.Database.SeedDemoData {
		if err := b.deps.Store.SeedDemoData(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	b.ready.Store(true)
	logging.Info().Str("environment", env).Msg("Backend initialized")
	return nil
}

// Ready reports whether Init has completed.
func (b *Backend) Ready() bool {
	return b.ready.Load()
}

// Ping checks the store for the readiness check.
func (b *Backend) Ping(ctx context.Context) error {
	if !b.Ready() {
		return ErrNotReady
	}
	return b.deps.Store.Ping(ctx)
}

// Sessions exposes the session middleware for routers.
func (b *Backend) Sessions() *auth.Middleware {
	return b.deps.Sessions
}

// Enforcer exposes the policy for routers.
func (b *Backend) Enforcer() *authz.Enforcer {
	return b.deps.Enforcer
}

// allow checks the policy for user. A nil user is anonymous.
func (b *Backend) allow(user *models.User, object, action string) error {
	ok, err := b.deps.Enforcer.Enforce(roleOf(user), object, action)
	if err != nil {
		return err
	}
	if !ok {
		if user == nil {
			return ErrUnauthorized
		}
		return ErrForbidden
	}
	return nil
}

// publish announces payload. Failures are logged; the write has already
// succeeded and realtime delivery is best effort.
func (b *Backend) publish(ctx context.Context, payload interface{}) {
	if b.deps.Events == nil {
		return
	}
	if err := b.deps.Events.Publish(ctx, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish event")
	}
}

func roleOf(user *models.User) string {
	return models.AuthState{Status: models.AuthUser, User: user}.Role()
}

func requireUser(user *models.User) error {
	if user == nil || user.ID == "" {
		return ErrUnauthorized
	}
	return nil
}
