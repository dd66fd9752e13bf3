// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package database

import (
	"io"

	"github.com/tomtom215/communitymap/internal/logging"
)

// closeWithLog closes a resource and logs a failure.
func closeWithLog(c io.Closer, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.Warn().Str("type", resource).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error
// is not actionable.
func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
