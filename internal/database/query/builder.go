// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

// Package query builds parameterised WHERE clauses for the database package.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/communitymap/internal/models"
)

// WhereBuilder accumulates AND-ed conditions and their arguments.
//
//	wb := query.NewWhereBuilder().AddBounds(b).AddOrigin("app-1")
//	where, args := wb.BuildWithPrefix()
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddBounds restricts latitude/longitude columns to b. A box that crosses
// the antimeridian becomes two longitude ranges.
func (wb *WhereBuilder) AddBounds(b models.MapBounds) *WhereBuilder {
	wb.AddClause("latitude BETWEEN ? AND ?", b.MinLat, b.MaxLat)
	if b.CrossesAntimeridian() {
		return wb.AddClause("(longitude >= ? OR longitude <= ?)", b.MinLng, b.MaxLng)
	}
	return wb.AddClause("longitude BETWEEN ? AND ?", b.MinLng, b.MaxLng)
}

// AddOrigin filters on the embedding app id. Empty origin is skipped.
func (wb *WhereBuilder) AddOrigin(origin string) *WhereBuilder {
	if origin == "" {
		return wb
	}
	return wb.AddClause("origin = ?", origin)
}

// AddEquals adds "column = ?" when value is non-empty. column must be a
// trusted identifier, never user input.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddClause(column+" = ?", value)
}

// AddIn adds "column IN (?, ...)". An empty list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = "?"
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ", ")))
	return wb
}

// AddSince adds "created >= ?" when since is non-zero.
func (wb *WhereBuilder) AddSince(since time.Time) *WhereBuilder {
	if since.IsZero() {
		return wb
	}
	return wb.AddClause("created >= ?", since)
}

// Build returns the joined conditions, or "1=1" when there are none.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	where, args := wb.Build()
	return "WHERE " + where, args
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
