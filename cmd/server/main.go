// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package main is the entry point for the CommunityMap server.
//
// CommunityMap shows geotagged community content (objects, comments and
// direct messages) on a shared map. The same server renders the full page
// shell and the embeddable one under /embed.
//
// # Startup order
//
//  1. Configuration: defaults, optional YAML file, .env and environment (koanf)
//  2. Logging: zerolog, bridged to slog for the supervisor
//  3. Database: DuckDB store for users, objects, comments and messages
//  4. Sessions: BadgerDB or in-memory store, plus an optional JWT manager
//  5. Authorization: casbin enforcer with the embedded or overridden policy
//  6. Events: watermill over an in-process channel, embedded NATS or external NATS
//  7. Supervisor tree: session cleanup, websocket hub, event router, HTTP server
//  8. Backend: store ping and development seed data, run once the tree is
//     serving so early requests see the initializing page
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
// to the server timeout, the hub closes every client, and the database and
// session store are closed after the tree has stopped.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/communitymap/internal/api"
	"github.com/tomtom215/communitymap/internal/auth"
	"github.com/tomtom215/communitymap/internal/authz"
	"github.com/tomtom215/communitymap/internal/backend"
	"github.com/tomtom215/communitymap/internal/config"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/events"
	"github.com/tomtom215/communitymap/internal/geocode"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/supervisor"
	"github.com/tomtom215/communitymap/internal/supervisor/services"
	ws "github.com/tomtom215/communitymap/internal/websocket"
)

const sessionCleanupInterval = 5 * time.Minute

//nolint:gocyclo // sequential setup
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("session_store", cfg.Security.SessionStore).
		Bool("geocode", cfg.Geocode.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	storeFactory, err := auth.NewSessionStoreFactory(auth.SessionStoreType(cfg.Security.SessionStore), cfg.Security.SessionStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := storeFactory.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	sessionStore := storeFactory.CreateStore()

	jwtManager := newJWTManager(cfg)
	sessions := auth.NewMiddleware(sessionStore, jwtManager, sessionConfig(cfg))

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		PolicyPath: cfg.Security.PolicyPath,
		CacheTTL:   authz.DefaultEnforcerConfig().CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	bus, err := events.New(cfg.Events, events.NewLoggerAdapter())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	logging.Info().Str("transport", bus.Transport()).Msg("Event bus ready")

	hub := ws.NewHub()

	b := backend.New(cfg, backend.Deps{
		Store:    db,
		Sessions: sessions,
		JWT:      jwtManager,
		Enforcer: enforcer,
		Events:   bus,
		Geocoder: newGeocoder(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := api.NewHandler(cfg, b, hub)
	router := api.NewRouter(handler, nil)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewSessionCleanupService(storeFactory, sessionStore, sessionCleanupInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		return events.NewRouter(events.RouterConfig{
			CloseTimeout:         cfg.Events.CloseTimeout,
			RetryMaxRetries:      events.DefaultRouterConfig().RetryMaxRetries,
			RetryInitialInterval: events.DefaultRouterConfig().RetryInitialInterval,
		}, bus, hub)
	}))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Pages render the initializing state until Init finishes.
	if err := run(ctx, tree, func(ctx context.Context) error {
		return b.Init(ctx, cfg.Server.Environment)
	}); err != nil {
		logging.Error().Err(err).Msg("Failed to initialize backend")
		return
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run serves the tree until ctx ends, then reports anything that did not
// stop in time. initFn runs once the tree is serving; its failure stops the
// tree and is returned.
func run(ctx context.Context, tree *supervisor.SupervisorTree, initFn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	initErr := make(chan error, 1)
	go func() {
		err := initFn(ctx)
		if err != nil && ctx.Err() == nil {
			initErr <- err
			cancel()
			return
		}
		if err == nil {
			logging.Info().Msg("Backend initialized")
		}
	}()

	// errCh yields exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	select {
	case err := <-initErr:
		return err
	default:
		return nil
	}
}

// newJWTManager returns nil when no secret is configured. Bearer tokens are
// then rejected and only cookie sessions work.
func newJWTManager(cfg *config.Config) *auth.JWTManager {
	if cfg.Security.JWTSecret == "" {
		logging.Info().Msg("JWT_SECRET not set, bearer tokens disabled")
		return nil
	}
	jm, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	return jm
}

func sessionConfig(cfg *config.Config) *auth.MiddlewareConfig {
	mc := auth.DefaultMiddlewareConfig()
	if cfg.Security.SessionTimeout > 0 {
		mc.SessionTTL = cfg.Security.SessionTimeout
	}
	mc.CookieSecure = cfg.Security.CookieSecure
	return mc
}

// newGeocoder returns a nil interface when geocoding is off, so the backend
// answers lookups with ErrDisabled.
func newGeocoder(cfg *config.Config) backend.Geocoder {
	if !cfg.Geocode.Enabled || cfg.Maps.APIKey == "" {
		return nil
	}
	provider, err := geocode.NewGoogleProvider(cfg.Maps.APIKey, "")
	if err != nil {
		logging.Warn().Err(err).Msg("Geocoding disabled")
		return nil
	}
	return geocode.NewService(provider, cfg.Geocode)
}
