// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package events carries content notifications from the backend to the
// realtime hub. Messages travel over an in-process watermill channel by
// default, or over NATS (external or embedded) when configured, so several
// server instances can share one stream of updates.
package events

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/communitymap/internal/models"
)

// Topics.
const (
	TopicObjectCreated  = "object.created"
	TopicCommentCreated = "comment.created"
	TopicMessageCreated = "message.created"
)

// Topics lists every topic the forwarder subscribes to.
var Topics = []string{TopicObjectCreated, TopicCommentCreated, TopicMessageCreated}

// TopicFor returns the topic of a payload type.
func TopicFor(payload interface{}) (string, error) {
	switch payload.(type) {
	case *models.ObjectItem, models.ObjectItem:
		return TopicObjectCreated, nil
	case *models.Comment, models.Comment:
		return TopicCommentCreated, nil
	case *models.DirectMessage, models.DirectMessage:
		return TopicMessageCreated, nil
	default:
		return "", fmt.Errorf("no topic for %T", payload)
	}
}

// decode unmarshals a payload of topic into its model type.
func decode(topic string, data []byte) (interface{}, error) {
	var v interface{}
	switch topic {
	case TopicObjectCreated:
		v = &models.ObjectItem{}
	case TopicCommentCreated:
		v = &models.Comment{}
	case TopicMessageCreated:
		v = &models.DirectMessage{}
	default:
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", topic, err)
	}
	return v, nil
}
