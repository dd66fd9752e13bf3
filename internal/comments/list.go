// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package comments renders comment threads and handles the single-field
// comment composer.
package comments

import (
	"time"

	"golang.org/x/text/language"

	"github.com/tomtom215/communitymap/internal/models"
)

// Author is a rendered user reference.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AuthorRenderer resolves a user id to its display form.
type AuthorRenderer func(userID string) Author

// Item is one rendered comment.
type Item struct {
	ID          string    `json:"id"`
	Author      Author    `json:"author"`
	Created     time.Time `json:"created"`
	CreatedText string    `json:"createdText"`
	Text        string    `json:"text"`
}

// List renders comments in input order. A nil renderer shows raw ids.
func List(comments []models.Comment, render AuthorRenderer, locale language.Tag) []Item {
	items := make([]Item, 0, len(comments))
	for _, c := range comments {
		var author Author
		if render != nil {
			author = render(c.Author)
		} else {
			author = Author{ID: c.Author, Name: c.Author}
		}
		items = append(items, Item{
			ID:          c.ID,
			Author:      author,
			Created:     c.Created,
			CreatedText: FormatTime(c.Created, locale),
			Text:        c.Comment,
		})
	}
	return items
}
