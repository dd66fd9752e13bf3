// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package models

// AuthStatus is the outcome of resolving the current user.
type AuthStatus int

const (
	// AuthUnresolved means the lookup could not complete yet.
	AuthUnresolved AuthStatus = iota
	// AuthAnonymous means there is no signed-in user.
	AuthAnonymous
	// AuthUser means User is set.
	AuthUser
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthUser:
		return "user"
	default:
		return "unresolved"
	}
}

// AuthState is the resolved auth context of a request.
type AuthState struct {
	Status AuthStatus
	User   *User
}

// Resolved reports whether the lookup completed.
func (a AuthState) Resolved() bool { return a.Status != AuthUnresolved }

// SignedIn reports whether a user is present.
func (a AuthState) SignedIn() bool { return a.Status == AuthUser && a.User != nil }

// UserID returns the user id, or "" when not signed in.
func (a AuthState) UserID() string {
	if !a.SignedIn() {
		return ""
	}
	return a.User.ID
}

// Role returns the effective role for authorization.
func (a AuthState) Role() string {
	if !a.SignedIn() {
		return RoleAnonymous
	}
	if a.User.Role == "" {
		return RoleUser
	}
	return a.User.Role
}
