// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/communitymap/internal/models"
)

// InsertComment stores a comment. The object must exist.
func (db *DB) InsertComment(ctx context.Context, c *models.Comment) (err error) {
	defer observe("INSERT", "comments", time.Now(), &err)

	var exists bool
	if err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM objects WHERE id = ?)`, c.ObjectID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check object: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, object_id, author, comment, created) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ObjectID, c.Author, c.Comment, c.Created)
	if isConstraintError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// Comments returns the comments on an object, oldest first.
func (db *DB) Comments(ctx context.Context, objectID string) (_ []models.Comment, err error) {
	defer observe("SELECT", "comments", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, object_id, author, comment, created FROM comments
		WHERE object_id = ? ORDER BY created ASC, id ASC`, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err = rows.Scan(&c.ID, &c.ObjectID, &c.Author, &c.Comment, &c.Created); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return out, nil
}
