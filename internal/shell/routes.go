// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package shell

// View identifies what a route renders over the map.
type View string

const (
	ViewHome           View = "home"
	ViewObject         View = "object"
	ViewDirectMessages View = "direct-messages"
	ViewUserProfile    View = "user-profile"
	ViewMyMessages     View = "my-messages"
	ViewTerms          View = "terms"
	ViewPrivacy        View = "privacy"
)

// Modal sizes.
const (
	SizeDefault = ""
	SizeTiny    = "tiny"
	SizeLarge   = "large"
)

// Route is one entry of the page route table. Patterns use chi syntax and
// are relative to the basename.
type Route struct {
	View    View
	Pattern string
	Param   string
	Title   string
	Size    string
	Modal   bool
}

// Routes is the page route table.
var Routes = []Route{
	{View: ViewHome, Pattern: "/"},
	{View: ViewObject, Pattern: "/object/{objectId}", Param: "objectId", Modal: true},
	{View: ViewDirectMessages, Pattern: "/direct-messages/{dmKey}", Param: "dmKey", Modal: true},
	{View: ViewUserProfile, Pattern: "/users/{userId}", Param: "userId", Size: SizeTiny, Modal: true},
	{View: ViewMyMessages, Pattern: "/my-messages", Title: "Messages", Size: SizeTiny, Modal: true},
	{View: ViewTerms, Pattern: "/terms", Title: "Terms of Service", Size: SizeLarge, Modal: true},
	{View: ViewPrivacy, Pattern: "/privacy", Title: "Privacy and Cookie Policy", Size: SizeLarge, Modal: true},
}

// RouteFor returns the route rendering v.
func RouteFor(v View) (Route, bool) {
	for _, r := range Routes {
		if r.View == v {
			return r, true
		}
	}
	return Route{}, false
}
