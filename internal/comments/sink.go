// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package comments

import (
	"context"

	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/metrics"
)

// ErrorSink receives errors from user actions.
type ErrorSink interface {
	Report(ctx context.Context, err error)
}

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(ctx context.Context, err error)

// Report calls f.
func (f ErrorSinkFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// LogSink logs reported errors and counts them by source.
type LogSink struct {
	Source string
}

// Report implements ErrorSink.
func (s LogSink) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	logging.Ctx(ctx).Error().Err(err).Str("source", s.Source).Msg("User action failed")
	metrics.RecordReportedError(s.Source)
}
