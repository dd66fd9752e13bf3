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

	"github.com/tomtom215/communitymap/internal/models"
)

// InsertUser stores a user. Names are unique; a clash returns ErrDuplicate.
func (db *DB) InsertUser(ctx context.Context, u *models.User) (err error) {
	defer observe("INSERT", "users", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, password_hash, role, created) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.PasswordHash, u.Role, u.Created)
	if isConstraintError(err) {
		err = ErrDuplicate
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return db.getUserBy(ctx, "id", id)
}

// GetUserByName returns a user by login name.
func (db *DB) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	return db.getUserBy(ctx, "name", name)
}

func (db *DB) getUserBy(ctx context.Context, column, value string) (_ *models.User, err error) {
	defer observe("SELECT", "users", time.Now(), &err)

	var u models.User
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, name, password_hash, role, created FROM users WHERE `+column+` = ?`, value).
		Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Role, &u.Created)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// SetUserRole changes a user's role.
func (db *DB) SetUserRole(ctx context.Context, id, role string) (err error) {
	defer observe("UPDATE", "users", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
