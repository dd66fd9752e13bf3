// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package comments

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// View is the data for the comments block.
type View struct {
	Items       []Item
	Action      string
	Value       string
	Placeholder string
	Error       string
	CanPost     bool
}

// Render writes the comment list and, when v.CanPost, the composer form.
func Render(w io.Writer, v View) error {
	if v.Placeholder == "" {
		v.Placeholder = Placeholder
	}
	return tmpl.ExecuteTemplate(w, "comments", v)
}

// HTML renders v for inclusion in another template.
func HTML(v View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}
