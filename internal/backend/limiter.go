// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package backend

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/communitymap/internal/cache"
)

// userLimiter throttles each user separately. Idle users age out of the
// cache, which resets their budget.
type userLimiter struct {
	mu       sync.Mutex
	perMin   int
	limiters *cache.LRU[*rate.Limiter]
}

func newUserLimiter(perMinute int) *userLimiter {
	return &userLimiter{
		perMin:   perMinute,
		limiters: cache.NewLRU[*rate.Limiter](10000, 10*time.Minute),
	}
}

// Allow reports whether userID may act now. A non-positive rate disables
// throttling.
func (l *userLimiter) Allow(userID string) bool {
	if l.perMin <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters.Get(userID)
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)
		l.limiters.Add(userID, lim)
	}
	return lim.Allow()
}
