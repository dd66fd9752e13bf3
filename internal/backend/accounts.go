// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/communitymap/internal/auth"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/metrics"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/validation"
)

// ResolveAuth returns the auth state of r. A session store failure yields
// AuthUnresolved so the page can keep the splash up and retry.
func (b *Backend) ResolveAuth(r *http.Request) models.AuthState {
	res, ok := auth.ResolutionFromContext(r.Context())
	if !ok {
		res = b.deps.Sessions.Resolve(r)
	}
	return stateOf(res)
}

func stateOf(res auth.Resolution) models.AuthState {
	switch {
	case res.Err != nil:
		return models.AuthState{Status: models.AuthUnresolved}
	case res.Subject == nil:
		return models.AuthState{Status: models.AuthAnonymous}
	default:
		return models.AuthState{Status: models.AuthUser, User: &models.User{
			ID:   res.Subject.ID,
			Name: res.Subject.Username,
			Role: res.Subject.Role,
		}}
	}
}

// Register creates an account and returns it.
func (b *Backend) Register(ctx context.Context, creds models.Credentials) (_ *models.User, err error) {
	defer func() { metrics.RecordAuthAttempt("register", err == nil) }()

	if verr := validation.ValidateStruct(&creds); verr != nil {
		return nil, verr
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         creds.Username,
		PasswordHash: hash,
		Role:         b.roleFor(creds.Username),
		Created:      time.Now().UTC(),
	}
	if err := b.deps.Store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Login checks credentials and returns the user. Unknown names and wrong
// passwords both yield auth.ErrInvalidCredentials.
func (b *Backend) Login(ctx context.Context, creds models.Credentials) (_ *models.User, err error) {
	defer func() { metrics.RecordAuthAttempt("login", err == nil) }()

	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	u, err := b.deps.Store.GetUserByName(ctx, creds.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, creds.Password); err != nil {
		return nil, err
	}

	if role := b.roleFor(u.Name); role == models.RoleAdmin && u.Role != role {
		if err := b.deps.Store.SetUserRole(ctx, u.ID, role); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		u.Role = role
	}
	return u, nil
}

// StartSession signs user in on w, replacing the session r carried.
func (b *Backend) StartSession(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) error {
	subject := &auth.Subject{ID: user.ID, Username: user.Name, Role: user.Role, Method: auth.MethodSession}
	_, err := b.deps.Sessions.CreateSession(ctx, w, subject, b.deps.Sessions.SessionID(r))
	return err
}

// Logout ends the session r carries and clears the cookie.
func (b *Backend) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return b.deps.Sessions.DestroySession(ctx, w, b.deps.Sessions.SessionID(r))
}

// IssueToken returns a bearer token for API clients.
func (b *Backend) IssueToken(user *models.User) (string, time.Time, error) {
	if b.deps.JWT == nil {
		return "", time.Time{}, errors.New("token issuing is disabled")
	}
	token, err := b.deps.JWT.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(b.deps.JWT.Timeout()), nil
}

func (b *Backend) roleFor(username string) string {
	for _, admin := range b.cfg.Security.AdminUsers {
		if strings.EqualFold(admin, username) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}
