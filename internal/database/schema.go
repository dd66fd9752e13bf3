// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package database

import (
	"context"
	"fmt"
)

// schemaStatements are idempotent and run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS objects (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		author TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT '',
		created TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		object_id TEXT NOT NULL,
		author TEXT NOT NULL,
		comment TEXT NOT NULL,
		created TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS direct_messages (
		id TEXT PRIMARY KEY,
		dm_key TEXT NOT NULL,
		author TEXT NOT NULL,
		recipient TEXT NOT NULL,
		content TEXT NOT NULL,
		created TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_lat_lng ON objects(latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_objects_author ON objects(author)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_object ON comments(object_id, created)`,
	`CREATE INDEX IF NOT EXISTS idx_dm_key ON direct_messages(dm_key, created)`,
}

func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
