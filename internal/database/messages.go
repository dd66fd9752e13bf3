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

// InsertMessage stores a direct message.
func (db *DB) InsertMessage(ctx context.Context, m *models.DirectMessage) (err error) {
	defer observe("INSERT", "direct_messages", time.Now(), &err)

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO direct_messages (id, dm_key, author, recipient, content, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.DMKey, m.Author, m.Recipient, m.Content, m.Created)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Messages returns a conversation, oldest first.
func (db *DB) Messages(ctx context.Context, dmKey string, limit int) (_ []models.DirectMessage, err error) {
	defer observe("SELECT", "direct_messages", time.Now(), &err)

	if limit <= 0 {
		limit = 200
	}
	// Take the newest `limit` rows, then flip to chronological order.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, dm_key, author, recipient, content, created FROM (
			SELECT * FROM direct_messages WHERE dm_key = ? ORDER BY created DESC LIMIT ?
		) ORDER BY created ASC, id ASC`, dmKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make([]models.DirectMessage, 0)
	for rows.Next() {
		var m models.DirectMessage
		if err = rows.Scan(&m.ID, &m.DMKey, &m.Author, &m.Recipient, &m.Content, &m.Created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}

// Conversations returns one entry per conversation the user takes part in,
// most recent first.
func (db *DB) Conversations(ctx context.Context, userID string) (_ []models.Conversation, err error) {
	defer observe("SELECT", "direct_messages", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT dm_key, content, created FROM direct_messages
		WHERE author = ? OR recipient = ? ORDER BY created DESC, id DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	seen := make(map[string]struct{})
	out := make([]models.Conversation, 0)
	for rows.Next() {
		var (
			key, content string
			created      time.Time
		)
		if err = rows.Scan(&key, &content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.Conversation{
			DMKey:       key,
			Peer:        models.Peer(key, userID),
			LastMessage: content,
			LastAt:      created,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return out, nil
}
