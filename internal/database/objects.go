// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/communitymap/internal/database/query"
	"github.com/tomtom215/communitymap/internal/models"
)

const objectColumns = `id, type, title, description, latitude, longitude, author, origin, created`

// InsertObject stores a new object. The caller assigns ID and Created.
func (db *DB) InsertObject(ctx context.Context, o *models.ObjectItem) (err error) {
	defer observe("INSERT", "objects", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx, `INSERT INTO objects (`+objectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Type, o.Title, o.Description, o.Loc.Latitude, o.Loc.Longitude,
		o.Author, o.Origin, o.Created)
	if isConstraintError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert object: %w", err)
	}
	return nil
}

// GetObject returns one object by id.
func (db *DB) GetObject(ctx context.Context, id string) (_ *models.ObjectItem, err error) {
	defer observe("SELECT", "objects", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM objects WHERE id = ?`, id)
	o, err := scanObject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return o, nil
}

// ObjectFilter narrows ObjectsInBounds.
type ObjectFilter struct {
	Origin string
	Author string
	Types  []string
	Since  time.Time
	Limit  int
}

// ObjectsInBounds returns objects inside b, newest first.
func (db *DB) ObjectsInBounds(ctx context.Context, b models.MapBounds, f ObjectFilter) (_ []models.ObjectItem, err error) {
	defer observe("SELECT", "objects", time.Now(), &err)

	where, args := query.NewWhereBuilder().
		AddBounds(b).
		AddOrigin(f.Origin).
		AddEquals("author", f.Author).
		AddIn("type", f.Types).
		AddSince(f.Since).
		BuildWithPrefix()

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM objects `+where+` ORDER BY created DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return collectObjects(rows)
}

// ObjectsByAuthor returns the objects a user posted, newest first.
func (db *DB) ObjectsByAuthor(ctx context.Context, author string, limit int) (_ []models.ObjectItem, err error) {
	defer observe("SELECT", "objects", time.Now(), &err)

	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+objectColumns+` FROM objects WHERE author = ? ORDER BY created DESC LIMIT ?`,
		author, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects by author: %w", err)
	}
	defer closeWithLog(rows, "rows")

	return collectObjects(rows)
}

// DeleteObject removes an object and its comments.
func (db *DB) DeleteObject(ctx context.Context, id string) (err error) {
	defer observe("DELETE", "objects", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE object_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CountObjects returns the total number of stored objects.
func (db *DB) CountObjects(ctx context.Context) (n int, err error) {
	defer observe("SELECT", "objects", time.Now(), &err)
	err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(s scanner) (*models.ObjectItem, error) {
	var o models.ObjectItem
	if err := s.Scan(&o.ID, &o.Type, &o.Title, &o.Description,
		&o.Loc.Latitude, &o.Loc.Longitude, &o.Author, &o.Origin, &o.Created); err != nil {
		return nil, err
	}
	return &o, nil
}

func collectObjects(rows *sql.Rows) ([]models.ObjectItem, error) {
	out := make([]models.ObjectItem, 0)
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate objects: %w", err)
	}
	return out, nil
}
