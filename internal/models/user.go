// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package models

import (
	"sort"
	"strings"
	"time"
)

// Roles.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleAdmin     = "admin"
)

// User is an account. PasswordHash never leaves the store layer in JSON.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Created      time.Time `json:"created"`
}

// Profile returns the public projection of u.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Created: u.Created}
}

// UserProfile is what other users can see.
type UserProfile struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// Credentials is the body of login and register requests.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// DirectMessage is one message in a two-party conversation.
type DirectMessage struct {
	ID        string    `json:"id"`
	DMKey     string    `json:"dmKey"`
	Author    string    `json:"author"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Created   time.Time `json:"created"`
}

// Conversation summarises a DM thread for the "my messages" view.
type Conversation struct {
	DMKey       string    `json:"dmKey"`
	Peer        string    `json:"peer"`
	LastMessage string    `json:"lastMessage"`
	LastAt      time.Time `json:"lastAt"`
}

// DMKey returns the conversation key for two users: both ids sorted and
// joined by "-". It is the same whichever side asks.
func DMKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "-" + ids[1]
}

// ParseDMKey splits a key built by DMKey. User ids are UUIDs, which contain
// dashes themselves, so a key of two UUIDs is split at offset 36.
func ParseDMKey(key string) (a, b string, ok bool) {
	const uuidLen = 36
	if len(key) == 2*uuidLen+1 && key[uuidLen] == '-' {
		a, b = key[:uuidLen], key[uuidLen+1:]
	} else {
		parts := strings.Split(key, "-")
		if len(parts) != 2 {
			return "", "", false
		}
		a, b = parts[0], parts[1]
	}
	if a == "" || b == "" || a == b || DMKey(a, b) != key {
		return "", "", false
	}
	return a, b, true
}

// Peer returns the other participant of key for user, or "" if user is not
// a participant.
func Peer(key, user string) string {
	a, b, ok := ParseDMKey(key)
	if !ok {
		return ""
	}
	switch user {
	case a:
		return b
	case b:
		return a
	}
	return ""
}
