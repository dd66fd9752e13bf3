// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package models

import "time"

// Object types a user can place on the map.
const (
	ObjectTypeChat  = "chat"
	ObjectTypePlace = "place"
	ObjectTypeStory = "story"
	ObjectTypeEvent = "event"
)

// ObjectTypes lists every accepted object type.
var ObjectTypes = []string{ObjectTypeChat, ObjectTypePlace, ObjectTypeStory, ObjectTypeEvent}

// ObjectItem is a piece of geotagged content.
type ObjectItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Loc         Location  `json:"loc"`
	Author      string    `json:"author"`
	Origin      string    `json:"origin,omitempty"`
	Created     time.Time `json:"created"`
}

// NewObjectItem is what a user submits to place content on the map. The
// author and origin come from the session and the embed params, not the body.
type NewObjectItem struct {
	Type        string `json:"type" validate:"omitempty,oneof=chat place story event"`
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

// Comment is a read-only comment on an object. Lists keep store order.
type Comment struct {
	ID       string    `json:"id"`
	ObjectID string    `json:"objectId"`
	Author   string    `json:"author"`
	Comment  string    `json:"comment"`
	Created  time.Time `json:"created"`
}
