// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package comments

import (
	"context"
	"strings"
	"sync"
)

// Placeholder is the composer input hint.
const Placeholder = "Your comment here"

// SubmitFunc posts a comment.
type SubmitFunc func(ctx context.Context, text string) error

// Composer is the pending text of one comment form.
type Composer struct {
	mu     sync.Mutex
	value  string
	submit SubmitFunc
	sink   ErrorSink
}

// NewComposer returns an empty composer. A nil sink drops errors after
// returning them.
func NewComposer(submit SubmitFunc, sink ErrorSink) *Composer {
	return &Composer{submit: submit, sink: sink}
}

// SetValue replaces the pending text.
func (c *Composer) SetValue(v string) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// Value returns the pending text.
func (c *Composer) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Submit posts the trimmed text. Blank text does nothing. On success the
// value is cleared; on failure it is kept, the error goes to the sink once
// and is returned.
func (c *Composer) Submit(ctx context.Context) error {
	text := strings.TrimSpace(c.Value())
	if text == "" {
		return nil
	}

	if err := c.submit(ctx, text); err != nil {
		if c.sink != nil {
			c.sink.Report(ctx, err)
		}
		return err
	}

	c.SetValue("")
	return nil
}
