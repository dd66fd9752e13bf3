// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

/*
Package services adapts CommunityMap components to suture.Service.

Each wrapper turns a component's own lifecycle into Serve(ctx) error:

  - HTTPServerService: ListenAndServe plus Shutdown with a drain timeout.
  - WebSocketHubService: the hub's RunWithContext loop.
  - EventRouterService: builds a new watermill router per Serve, since a
    router cannot be run twice, and reports a silent exit as a failure.
  - SessionCleanupService: the session store's expiry sweep.

Returning an error asks the supervisor for a restart. Returning ctx.Err()
after cancellation is a normal stop. Every wrapper implements fmt.Stringer
so supervisor log lines name the service.
*/
package services
