// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/tomtom215/communitymap/internal/models"
)

func TestList_Empty(t *testing.T) {
	items := List(nil, nil, language.AmericanEnglish)
	if items == nil || len(items) != 0 {
		t.Errorf("List(nil) = %#v, want empty slice", items)
	}

	var buf strings.Builder
	if err := Render(&buf, View{Items: items}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(buf.String(), `class="comment"`) {
		t.Errorf("empty list rendered items: %s", buf.String())
	}
}

func TestList_PreservesOrderAndRendersAuthor(t *testing.T) {
	ts := time.Date(2026, 3, 4, 17, 5, 0, 0, time.UTC)
	in := []models.Comment{
		{ID: "3", Author: "u2", Comment: "third", Created: ts},
		{ID: "1", Author: "u1", Comment: "first", Created: ts},
		{ID: "2", Author: "u2", Comment: "second", Created: ts},
	}
	render := func(id string) Author {
		return Author{ID: id, Name: "name-" + id, URL: "/users/" + id}
	}

	items := List(in, render, language.BritishEnglish)
	if len(items) != 3 {
		t.Fatalf("len = %d", len(items))
	}
	for i, c := range in {
		if items[i].ID != c.ID || items[i].Text != c.Comment {
			t.Errorf("items[%d] = %+v, want comment %s", i, items[i], c.ID)
		}
		if items[i].Author.Name != "name-"+c.Author {
			t.Errorf("items[%d].Author = %+v", i, items[i].Author)
		}
	}
	if items[0].CreatedText != "4 Mar 2026, 17:05" {
		t.Errorf("CreatedText = %q", items[0].CreatedText)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 4, 17, 5, 0, 0, time.UTC)
	tests := []struct {
		tag  language.Tag
		want string
	}{
		{language.AmericanEnglish, "Mar 4, 2026, 5:05 PM"},
		{language.German, "04.03.2026, 17:05"},
		{language.Bulgarian, "04.03.2026 г., 17:05"},
		{language.MustParse("de-AT"), "04.03.2026, 17:05"},
		{language.Japanese, "Mar 4, 2026, 5:05 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			if got := FormatTime(ts, tt.tag); got != tt.want {
				t.Errorf("FormatTime() = %q, want %q", got, tt.want)
			}
		})
	}
	if FormatTime(time.Time{}, language.German) != "" {
		t.Error("zero time should format as empty")
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.AmericanEnglish},
		{"bg-BG,bg;q=0.9,en;q=0.8", language.Bulgarian},
		{"en-GB", language.BritishEnglish},
		{"de", language.German},
		{"!!!", language.AmericanEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := MatchLocale(tt.header)
			if got != tt.want {
				t.Errorf("MatchLocale(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

type countingSink struct {
	calls int
	last  error
}

func (s *countingSink) Report(_ context.Context, err error) {
	s.calls++
	s.last = err
}

func TestComposer_SuccessClears(t *testing.T) {
	var posted []string
	sink := &countingSink{}
	c := NewComposer(func(_ context.Context, text string) error {
		posted = append(posted, text)
		return nil
	}, sink)

	c.SetValue("  hello world \n")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if c.Value() != "" {
		t.Errorf("Value() = %q, want cleared", c.Value())
	}
	if len(posted) != 1 || posted[0] != "hello world" {
		t.Errorf("posted = %q", posted)
	}
	if sink.calls != 0 {
		t.Errorf("sink called %d times", sink.calls)
	}
}

func TestComposer_FailureKeepsValue(t *testing.T) {
	boom := errors.New("backend down")
	sink := &countingSink{}
	c := NewComposer(func(context.Context, string) error { return boom }, sink)

	c.SetValue("keep me")
	err := c.Submit(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Submit() error = %v, want %v", err, boom)
	}
	if c.Value() != "keep me" {
		t.Errorf("Value() = %q, want unchanged", c.Value())
	}
	if sink.calls != 1 || !errors.Is(sink.last, boom) {
		t.Errorf("sink calls = %d, last = %v", sink.calls, sink.last)
	}
}

func TestComposer_BlankIsNoop(t *testing.T) {
	called := false
	sink := &countingSink{}
	c := NewComposer(func(context.Context, string) error {
		called = true
		return nil
	}, sink)

	c.SetValue("   ")
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if called || sink.calls != 0 {
		t.Error("blank submit reached callback or sink")
	}
	if c.Value() != "   " {
		t.Errorf("blank value was modified: %q", c.Value())
	}
}

func TestRender_ComposerStopsPropagation(t *testing.T) {
	out, err := HTML(View{
		Items:   []Item{{ID: "1", Author: Author{Name: "Anonymous", URL: "/users/x"}, Text: "<b>hi</b>"}},
		Action:  "/object/o1/comments",
		Value:   "draft",
		CanPost: true,
		Error:   "failed",
	})
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`onclick="event.stopPropagation()"`,
		`placeholder="Your comment here"`,
		`value="draft"`,
		`&lt;b&gt;hi&lt;/b&gt;`,
		`action="/object/o1/comments"`,
		`role="alert"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}
