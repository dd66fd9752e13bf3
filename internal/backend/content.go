// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package backend

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/communitymap/internal/authz"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/geocode"
	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/validation"
)

// MaxTextLength caps comments and direct messages, in runes.
const MaxTextLength = 2000

// ObjectDetail is an object with its comments, for the object modal.
type ObjectDetail struct {
	Object   *models.ObjectItem `json:"object"`
	Comments []models.Comment   `json:"comments"`
}

// PostObject stores a new object at loc for user and announces it. appID is
// the embedding app, or "" for the full app.
func (b *Backend) PostObject(ctx context.Context, user *models.User, loc models.Location, item models.NewObjectItem, appID string) (*models.ObjectItem, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := b.allow(user, authz.ObjObject, authz.ActCreate); err != nil {
		return nil, err
	}

	item.Title = strings.TrimSpace(item.Title)
	item.Description = strings.TrimSpace(item.Description)
	if verr := validation.ValidateStruct(&item); verr != nil {
		return nil, verr
	}
	if !loc.Valid() {
		return nil, fieldError("loc", "location", "loc must be a valid coordinate")
	}
	if item.Type == "" {
		item.Type = models.ObjectTypeChat
	}

	o := &models.ObjectItem{
		ID:          uuid.NewString(),
		Type:        item.Type,
		Title:       item.Title,
		Description: item.Description,
		Loc:         loc,
		Author:      user.ID,
		Origin:      appID,
		Created:     time.Now().UTC(),
	}
	if err := b.deps.Store.InsertObject(ctx, o); err != nil {
		return nil, err
	}

	metrics.ObjectsPosted.WithLabelValues(o.Type, strconv.FormatBool(appID != "")).Inc()
	b.publish(ctx, o)
	return o, nil
}

// ObjectsInBounds returns the objects visible in bounds. A non-empty origin
// keeps only objects posted through that app.
func (b *Backend) ObjectsInBounds(ctx context.Context, bounds models.MapBounds, origin string) ([]models.ObjectItem, error) {
	return b.SearchObjects(ctx, bounds, database.ObjectFilter{Origin: origin})
}

// SearchObjects is ObjectsInBounds with the author, type and age filters of
// the objects listing. The viewport limit always applies.
func (b *Backend) SearchObjects(ctx context.Context, bounds models.MapBounds, f database.ObjectFilter) ([]models.ObjectItem, error) {
	if !bounds.Valid() {
		return nil, fieldError("bounds", "bounds", "bounds must be valid coordinates")
	}
	f.Limit = b.cfg.Maps.ViewportLimit
	return b.deps.Store.ObjectsInBounds(ctx, bounds, f)
}

// Object returns one object.
func (b *Backend) Object(ctx context.Context, id string) (*models.ObjectItem, error) {
	return b.deps.Store.GetObject(ctx, id)
}

// ObjectDetail loads an object and its comments concurrently.
func (b *Backend) ObjectDetail(ctx context.Context, id string) (*ObjectDetail, error) {
	var d ObjectDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Object, err = b.deps.Store.GetObject(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		d.Comments, err = b.deps.Store.Comments(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteObject removes an object with its comments. Authors may delete
// their own objects; admins may delete any.
func (b *Backend) DeleteObject(ctx context.Context, user *models.User, id string) error {
	if err := requireUser(user); err != nil {
		return err
	}
	o, err := b.deps.Store.GetObject(ctx, id)
	if err != nil {
		return err
	}

	ok, err := b.deps.Enforcer.EnforceOwned(roleOf(user), authz.ObjObject, authz.ActDelete, authz.ActDeleteOwn, o.Author == user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return b.deps.Store.DeleteObject(ctx, id)
}

// Comments returns the comments of an object in creation order.
func (b *Backend) Comments(ctx context.Context, objectID string) ([]models.Comment, error) {
	return b.deps.Store.Comments(ctx, objectID)
}

// PostComment adds a comment by user and announces it.
func (b *Backend) PostComment(ctx context.Context, user *models.User, objectID, text string) (*models.Comment, error) {
	if err := requireUser(user); err != nil {
		return nil, err
	}
	if err := b.allow(user, authz.ObjComment, authz.ActCreate); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if err := checkText("comment", text); err != nil {
		return nil, err
	}
	if !b.limiter.Allow(user.ID) {
		return nil, ErrRateLimited
	}

	c := &models.Comment{
		ID:       uuid.NewString(),
		ObjectID: objectID,
		Author:   user.ID,
		Comment:  text,
		Created:  time.Now().UTC(),
	}
	if err := b.deps.Store.InsertComment(ctx, c); err != nil {
		return nil, err
	}

	metrics.CommentsPosted.Inc()
	b.publish(ctx, c)
	return c, nil
}

// Geocode looks up an address for the locate box.
func (b *Backend) Geocode(ctx context.Context, user *models.User, address string) ([]geocode.Result, error) {
	if err := b.allow(user, authz.ObjGeocode, authz.ActRead); err != nil {
		return nil, err
	}
	if b.deps.Geocoder == nil {
		return nil, geocode.ErrDisabled
	}
	results, err := b.deps.Geocoder.Lookup(ctx, address)
	if errors.Is(err, geocode.ErrEmptyAddress) {
		return nil, fieldError("address", "required", "address is required")
	}
	return results, err
}

func checkText(field, text string) error {
	if text == "" {
		return fieldError(field, "required", field+" is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return fieldError(field, "max", field+" must be at most "+strconv.Itoa(MaxTextLength)+" characters")
	}
	return nil
}

func fieldError(field, tag, msg string) *validation.RequestValidationError {
	return &validation.RequestValidationError{Fields: []validation.FieldError{{Field: field, Tag: tag, Message: msg}}}
}
