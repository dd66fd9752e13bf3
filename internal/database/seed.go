// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/models"
)

// DemoAuthorID owns the seeded content.
const DemoAuthorID = "demo"

var demoObjects = []struct {
	typ, title, desc string
	lat, lng         float64
}{
	{models.ObjectTypePlace, "NDK", "National Palace of Culture", 42.6847, 23.3189},
	{models.ObjectTypeEvent, "Sunday market", "Fresh produce every Sunday morning", 42.6964, 23.3211},
	{models.ObjectTypeStory, "The old tram line", "Route 1 has run here since 1901", 42.6932, 23.3226},
	{models.ObjectTypeChat, "Anyone up for chess?", "Boards are out by the fountain", 42.6911, 23.3252},
}

// SeedDemoData inserts a demo user and a handful of objects around the
// default map center. It does nothing when objects already exist.
func (db *DB) SeedDemoData(ctx context.Context) error {
	n, err := db.CountObjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to count objects: %w", err)
	}
	if n > 0 {
		logging.Debug().Int("objects", n).Msg("Skipping demo seed, database not empty")
		return nil
	}

	now := time.Now().UTC()
	demo := &models.User{
		ID:      DemoAuthorID,
		Name:    "CommunityMap",
		Role:    models.RoleUser,
		Created: now,
		// Not a valid bcrypt hash, so the account cannot log in.
		PasswordHash: "!",
	}
	if err := db.InsertUser(ctx, demo); err != nil && !errors.Is(err, ErrDuplicate) {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	for i, d := range demoObjects {
		o := &models.ObjectItem{
			ID:          uuid.New().String(),
			Type:        d.typ,
			Title:       d.title,
			Description: d.desc,
			Loc:         models.Location{Latitude: d.lat, Longitude: d.lng},
			Author:      DemoAuthorID,
			Created:     now.Add(time.Duration(i) * time.Second),
		}
		if err := db.InsertObject(ctx, o); err != nil {
			return fmt.Errorf("failed to seed object %q: %w", d.title, err)
		}
	}

	logging.Info().Int("objects", len(demoObjects)).Msg("Seeded demo content")
	return nil
}
