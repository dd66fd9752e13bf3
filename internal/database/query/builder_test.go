// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package query

import (
	"testing"
	"time"

	"github.com/tomtom215/communitymap/internal/models"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	if !wb.IsEmpty() {
		t.Error("expected new builder to be empty")
	}
	where, args := wb.Build()
	if where != "1=1" || len(args) != 0 {
		t.Errorf("Build() = %q, %v", where, args)
	}
}

func TestWhereBuilder_Bounds(t *testing.T) {
	where, args := NewWhereBuilder().
		AddBounds(models.MapBounds{MinLat: 1, MaxLat: 2, MinLng: 3, MaxLng: 4}).
		BuildWithPrefix()

	want := "WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 4 || args[0] != 1.0 || args[3] != 4.0 {
		t.Errorf("args = %v", args)
	}
}

func TestWhereBuilder_BoundsAntimeridian(t *testing.T) {
	where, args := NewWhereBuilder().
		AddBounds(models.MapBounds{MinLat: -1, MaxLat: 1, MinLng: 170, MaxLng: -170}).
		Build()

	want := "latitude BETWEEN ? AND ? AND (longitude >= ? OR longitude <= ?)"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if args[2] != 170.0 || args[3] != -170.0 {
		t.Errorf("args = %v", args)
	}
}

func TestWhereBuilder_SkipsEmpty(t *testing.T) {
	wb := NewWhereBuilder().AddOrigin("").AddEquals("author", "").AddIn("id", nil).AddSince(time.Time{})
	if !wb.IsEmpty() {
		where, _ := wb.Build()
		t.Errorf("expected empty builder, got %q", where)
	}
}

func TestWhereBuilder_Chain(t *testing.T) {
	where, args := NewWhereBuilder().
		AddOrigin("app-1").
		AddEquals("author", "u1").
		AddIn("type", []string{"chat", "event"}).
		Build()

	want := "origin = ? AND author = ? AND type IN (?, ?)"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 4 || args[0] != "app-1" || args[3] != "event" {
		t.Errorf("args = %v", args)
	}
}
