// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/communitymap/internal/authz"
	"github.com/tomtom215/communitymap/internal/comments"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
)

const (
	// AnonymousName is shown for authors without an account.
	AnonymousName = "Anonymous"

	profileObjectLimit = 20
	messageLimit       = 200
)

// Profile is the public view of a user.
type Profile struct {
	User    models.UserProfile  `json:"user"`
	Objects []models.ObjectItem `json:"objects"`
}

// Profile returns a user's public profile and recent objects.
func (b *Backend) Profile(ctx context.Context, userID string) (*Profile, error) {
	var (
		u *models.User
		p Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		u, err = b.deps.Store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		p.Objects, err = b.deps.Store.ObjectsByAuthor(gctx, userID, profileObjectLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.User = u.Profile()
	return &p, nil
}

// RenderAuthor returns how userID appears next to content. Unknown or
// empty ids render as Anonymous.
func (b *Backend) RenderAuthor(ctx context.Context, userID string) comments.Author {
	a := comments.Author{ID: userID, Name: AnonymousName}
	if userID == "" {
		return a
	}
	a.URL = "/users/" + userID

	u, err := b.deps.Store.GetUser(ctx, userID)
	switch {
	case err == nil && u.Name != "":
		a.Name = u.Name
	case err != nil && !errors.Is(err, database.ErrNotFound):
		logging.Ctx(ctx).Warn().Err(err).Str("author", userID).Msg("Failed to load author")
	}
	return a
}

// AuthorRenderer returns a renderer for one page that looks each author up
// once.
func (b *Backend) AuthorRenderer(ctx context.Context) comments.AuthorRenderer {
	var mu sync.Mutex
	seen := make(map[string]comments.Author)
	return func(userID string) comments.Author {
		mu.Lock()
		defer mu.Unlock()
		if a, ok := seen[userID]; ok {
			return a
		}
		a := b.RenderAuthor(ctx, userID)
		seen[userID] = a
		return a
	}
}

// DirectMessages returns the conversation dmKey. Only its two participants
// may read it.
func (b *Backend) DirectMessages(ctx context.Context, user *models.User, dmKey string) ([]models.DirectMessage, error) {
	if _, err := b.participant(user, dmKey, authz.ActReadOwn); err != nil {
		return nil, err
	}
	return b.deps.Store.Messages(ctx, dmKey, messageLimit)
}

// SendDirectMessage appends text to dmKey as user and notifies both sides.
func (b *Backend) SendDirectMessage(ctx context.Context, user *models.User, dmKey, text string) (*models.DirectMessage, error) {
	peer, err := b.participant(user, dmKey, authz.ActCreateOwn)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if err := checkText("content", text); err != nil {
		return nil, err
	}
	if _, err := b.deps.Store.GetUser(ctx, peer); err != nil {
		return nil, err
	}

	m := &models.DirectMessage{
		ID:        uuid.NewString(),
		DMKey:     dmKey,
		Author:    user.ID,
		Recipient: peer,
		Content:   text,
		Created:   time.Now().UTC(),
	}
	if err := b.deps.Store.InsertMessage(ctx, m); err != nil {
		return nil, err
	}

	metrics.DirectMessagesSent.Inc()
	b.publish(ctx, m)
	return m, nil
}

// MyConversations lists user's conversations, most recent first.
func (b *Backend) MyConversations(ctx context.Context, user *models.User) ([]models.Conversation, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := b.allow(user, authz.ObjMessage, authz.ActReadOwn); err != nil {
		return nil, err
	}
	return b.deps.Store.Conversations(ctx, user.ID)
}

// participant checks that user takes part in dmKey and returns the peer.
func (b *Backend) participant(user *models.User, dmKey, action string) (string, error) {
	if err := requireUser(user); err != nil {
		return "", err
	}
	if err := b.allow(user, authz.ObjMessage, action); err != nil {
		return "", err
	}
	peer := models.Peer(dmKey, user.ID)
	if peer == "" {
		return "", ErrForbidden
	}
	return peer, nil
}
