// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package api

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/communitymap/internal/comments"
	"github.com/tomtom215/communitymap/internal/database"
	"github.com/tomtom215/communitymap/internal/maps"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/validation"
)

// ViewportRequest is a map widget change event, optionally filtered to one
// origin app.
type ViewportRequest struct {
	maps.ChangeEvent
	Origin string `json:"origin,omitempty"`
}

// ViewportResponse is the derived viewport and what is visible in it.
type ViewportResponse struct {
	Viewport models.Viewport     `json:"viewport"`
	Objects  []models.ObjectItem `json:"objects"`
}

// CreateObjectRequest posts a new object.
type CreateObjectRequest struct {
	models.NewObjectItem
	Loc   models.Location `json:"loc"`
	AppID string          `json:"appId,omitempty"`
}

// CommentRequest posts a comment.
type CommentRequest struct {
	Comment string `json:"comment"`
}

// MessageRequest sends a direct message.
type MessageRequest struct {
	Content string `json:"content"`
}

// ObjectDetailResponse is an object with its rendered comments.
type ObjectDetailResponse struct {
	Object   *models.ObjectItem `json:"object"`
	Author   comments.Author    `json:"author"`
	Comments []comments.Item    `json:"comments"`
}

// LoginResponse is returned by login and register.
type LoginResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

// MeResponse describes the caller.
type MeResponse struct {
	Status string       `json:"status"`
	User   *models.User `json:"user,omitempty"`
}

// Viewport handles POST /api/v1/viewport.
func (h *Handler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)

	var (
		objects []models.ObjectItem
		err     error
	)
	vp := maps.NewAdapter(func(ctx context.Context, _ models.Location, bounds models.MapBounds, _ int) {
		objects, err = h.backend.ObjectsInBounds(ctx, bounds, req.Origin)
	}).HandleChange(r.Context(), req.ChangeEvent)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Success(ViewportResponse{Viewport: vp, Objects: objects})
}

// ListObjects handles GET /api/v1/objects.
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	bounds, verr := parseBounds(q)
	filter, ferr := parseObjectFilter(q)
	if verr != nil || ferr != nil {
		rw.ValidationError(mergeValidation(verr, ferr))
		return
	}
	objects, err := h.backend.SearchObjects(r.Context(), bounds, filter)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.List(objects, len(objects))
}

// CreateObject handles POST /api/v1/objects.
func (h *Handler) CreateObject(w http.ResponseWriter, r *http.Request) {
	var req CreateObjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)

	o, err := h.backend.PostObject(r.Context(), h.currentUser(r), req.Loc, req.NewObjectItem, req.AppID)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Created(o)
}

// GetObject handles GET /api/v1/objects/{id}.
func (h *Handler) GetObject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	d, err := h.backend.ObjectDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.BackendError(err)
		return
	}
	authors := h.backend.AuthorRenderer(r.Context())
	rw.Success(ObjectDetailResponse{
		Object:   d.Object,
		Author:   authors(d.Object.Author),
		Comments: comments.List(d.Comments, authors, comments.MatchLocale(r.Header.Get("Accept-Language"))),
	})
}

// DeleteObject handles DELETE /api/v1/objects/{id}.
func (h *Handler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.backend.DeleteObject(r.Context(), h.currentUser(r), chi.URLParam(r, "id")); err != nil {
		rw.BackendError(err)
		return
	}
	rw.NoContent()
}

// ListComments handles GET /api/v1/objects/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.backend.Object(ctx, id); err != nil {
		rw.BackendError(err)
		return
	}
	list, err := h.backend.Comments(ctx, id)
	if err != nil {
		rw.BackendError(err)
		return
	}
	items := comments.List(list, h.backend.AuthorRenderer(ctx), comments.MatchLocale(r.Header.Get("Accept-Language")))
	rw.List(items, len(items))
}

// CreateComment handles POST /api/v1/objects/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.backend.Object(ctx, id); err != nil {
		rw.BackendError(err)
		return
	}
	c, err := h.backend.PostComment(ctx, h.currentUser(r), id, req.Comment)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Created(c)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	p, err := h.backend.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Success(p)
}

// ListDirectMessages handles GET /api/v1/direct-messages/{dmKey}.
func (h *Handler) ListDirectMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	msgs, err := h.backend.DirectMessages(r.Context(), h.currentUser(r), chi.URLParam(r, "dmKey"))
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.List(msgs, len(msgs))
}

// SendDirectMessage handles POST /api/v1/direct-messages/{dmKey}.
func (h *Handler) SendDirectMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	m, err := h.backend.SendDirectMessage(r.Context(), h.currentUser(r), chi.URLParam(r, "dmKey"), req.Content)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Created(m)
}

// MyMessages handles GET /api/v1/my-messages.
func (h *Handler) MyMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	convs, err := h.backend.MyConversations(r.Context(), h.currentUser(r))
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.List(convs, len(convs))
}

// Geocode handles GET /api/v1/geocode?address=.
func (h *Handler) Geocode(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	results, err := h.backend.Geocode(r.Context(), h.currentUser(r), r.URL.Query().Get("address"))
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.List(results, len(results))
}

// MapOptions handles GET /api/v1/maps/options.
func (h *Handler) MapOptions(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"options": h.mapOpts,
		"apiKey":  h.cfg.Maps.APIKey,
	})
}

// Login handles POST /api/v1/auth/login. It starts a cookie session and,
// when tokens are enabled, also returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	rw := NewResponseWriter(w, r)

	u, err := h.backend.Login(r.Context(), creds)
	if err != nil {
		rw.BackendError(err)
		return
	}
	h.signedIn(w, r, rw, u, http.StatusOK)
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	rw := NewResponseWriter(w, r)

	u, err := h.backend.Register(r.Context(), creds)
	if err != nil {
		rw.BackendError(err)
		return
	}
	h.signedIn(w, r, rw, u, http.StatusCreated)
}

func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, rw *ResponseWriter, u *models.User, status int) {
	if err := h.backend.StartSession(r.Context(), w, r, u); err != nil {
		rw.BackendError(err)
		return
	}

	resp := LoginResponse{User: u}
	if token, exp, err := h.backend.IssueToken(u); err == nil {
		resp.Token = token
		resp.ExpiresAt = &exp
	}
	if status == http.StatusCreated {
		rw.Created(resp)
		return
	}
	rw.Success(resp)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.backend.Logout(r.Context(), w, r); err != nil {
		rw.BackendError(err)
		return
	}
	rw.NoContent()
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	state := h.backend.ResolveAuth(r)
	if !state.Resolved() {
		rw.ServiceUnavailable("Session store unavailable")
		return
	}
	rw.Success(MeResponse{Status: state.Status.String(), User: state.User})
}

// Policy handles GET /api/v1/admin/policy.
func (h *Handler) Policy(w http.ResponseWriter, r *http.Request) {
	policies := h.backend.Enforcer().GetPolicy()
	NewResponseWriter(w, r).List(policies, len(policies))
}

// parseBounds reads minLat, maxLat, minLng and maxLng from q.
func parseBounds(q url.Values) (models.MapBounds, *validation.RequestValidationError) {
	var (
		b      models.MapBounds
		fields []validation.FieldError
	)
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"minLat", &b.MinLat},
		{"maxLat", &b.MaxLat},
		{"minLng", &b.MinLng},
		{"maxLng", &b.MaxLng},
	} {
		raw := strings.TrimSpace(q.Get(p.name))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields = append(fields, validation.FieldError{
				Field:   p.name,
				Tag:     "number",
				Message: p.name + " must be a number",
			})
			continue
		}
		*p.dst = v
	}
	if len(fields) > 0 {
		return b, &validation.RequestValidationError{Fields: fields}
	}
	return b, nil
}

// parseObjectFilter reads origin, author, type and since. type may repeat
// or hold a comma-separated list; since is RFC 3339.
func parseObjectFilter(q url.Values) (database.ObjectFilter, *validation.RequestValidationError) {
	f := database.ObjectFilter{
		Origin: q.Get("origin"),
		Author: strings.TrimSpace(q.Get("author")),
	}
	var fields []validation.FieldError

	for _, raw := range q["type"] {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if !slices.Contains(models.ObjectTypes, t) {
				fields = append(fields, validation.FieldError{
					Field:   "type",
					Tag:     "oneof",
					Param:   strings.Join(models.ObjectTypes, " "),
					Message: "type must be one of " + strings.Join(models.ObjectTypes, ", "),
				})
				continue
			}
			f.Types = append(f.Types, t)
		}
	}

	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			fields = append(fields, validation.FieldError{
				Field:   "since",
				Tag:     "datetime",
				Param:   time.RFC3339,
				Message: "since must be an RFC 3339 timestamp",
			})
		}
		f.Since = since
	}

	if len(fields) > 0 {
		return f, &validation.RequestValidationError{Fields: fields}
	}
	return f, nil
}

func mergeValidation(errs ...*validation.RequestValidationError) *validation.RequestValidationError {
	merged := &validation.RequestValidationError{}
	for _, e := range errs {
		if e != nil {
			merged.Fields = append(merged.Fields, e.Fields...)
		}
	}
	return merged
}
