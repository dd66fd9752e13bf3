// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

/*
Package supervisor runs the long-lived parts of CommunityMap under a suture v4
tree.

Services are split into three layers, each its own supervisor under the
root, so a crashing event router never restarts the HTTP server:

	communitymap
	├── data-layer
	│   └── SessionCleanupService
	├── messaging-layer
	│   ├── WebSocketHubService
	│   └── EventRouterService
	└── api-layer
	    └── HTTPServerService

Supervisor events (start, stop, failure, backoff) are logged through
sutureslog using the slog bridge from internal/logging.

A service returning an error is restarted. Once a layer's failure count
crosses FailureThreshold the layer waits FailureBackoff before the next
restart. The count decays with a half-life of FailureDecay seconds.

DuckDB and BadgerDB are not supervised. They are embedded libraries whose
handles are opened once in main and closed after the tree stops.

Use UnstoppedServiceReport after Serve returns to find services that did not
honor context cancellation within ShutdownTimeout.
*/
package supervisor
