// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/communitymap/internal/comments"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/shell"
	"github.com/tomtom215/communitymap/internal/validation"
)

const consentMaxAge = 365 * 24 * time.Hour

type authPageData struct {
	Title    string
	Action   string
	Register bool
	Username string
	Next     string
	Error    string
}

func mustRoute(v shell.View) shell.Route {
	r, ok := shell.RouteFor(v)
	if !ok {
		panic("api: no route for view " + string(v))
	}
	return r
}

var (
	homeRoute     = mustRoute(shell.ViewHome)
	objectRoute   = mustRoute(shell.ViewObject)
	messagesRoute = mustRoute(shell.ViewDirectMessages)
)

// PostObjectForm handles POST /object from the new-content widget.
func (h *Handler) PostObjectForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	params := shell.NewInitialAppParams(shell.ParseParams(r.URL.Query()))

	item := models.NewObjectItem{
		Type:        r.PostForm.Get("type"),
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
	}
	fail := func(err error) {
		h.servePage(w, r, homeRoute, formState{status: statusFor(err), err: userMessage(err), object: item})
	}

	loc, ok := formLocation(r)
	if !ok {
		fail(&validation.RequestValidationError{Fields: []validation.FieldError{{
			Field: "loc", Tag: "required", Message: "Pick a location on the map first",
		}}})
		return
	}

	o, err := h.backend.PostObject(r.Context(), h.currentUser(r), loc, item, params.AppID)
	if err != nil {
		fail(err)
		return
	}
	http.Redirect(w, r, shell.LinkFor(r, "/object/"+o.ID), http.StatusSeeOther)
}

// PostCommentForm handles POST /object/{objectId}/comments. A failed post
// re-renders the object modal with the composer still holding the text.
func (h *Handler) PostCommentForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "objectId")
	user := h.currentUser(r)

	if _, err := h.backend.Object(r.Context(), id); err != nil {
		h.servePage(w, r, objectRoute, formState{status: statusFor(err)})
		return
	}

	composer := comments.NewComposer(func(ctx context.Context, text string) error {
		_, err := h.backend.PostComment(ctx, user, id, text)
		return err
	}, comments.LogSink{Source: "comment_composer"})
	composer.SetValue(r.PostFormValue("comment"))

	if err := composer.Submit(r.Context()); err != nil {
		h.servePage(w, r, objectRoute, formState{
			status: statusFor(err),
			err:    userMessage(err),
			value:  composer.Value(),
		})
		return
	}
	http.Redirect(w, r, shell.LinkFor(r, "/object/"+id), http.StatusSeeOther)
}

// PostMessageForm handles POST /direct-messages/{dmKey}.
func (h *Handler) PostMessageForm(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dmKey")
	text := r.PostFormValue("content")

	if _, err := h.backend.SendDirectMessage(r.Context(), h.currentUser(r), key, text); err != nil {
		comments.LogSink{Source: "message_composer"}.Report(r.Context(), err)
		h.servePage(w, r, messagesRoute, formState{status: statusFor(err), err: userMessage(err), value: text})
		return
	}
	http.Redirect(w, r, shell.LinkFor(r, "/direct-messages/"+key), http.StatusSeeOther)
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "auth", authPageData{
		Title:  "Sign in",
		Action: "/login",
		Next:   localPath(r.URL.Query().Get("next"), "/"),
	})
}

// RegisterPage handles GET /register.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "auth", authPageData{
		Title:    "Create account",
		Action:   "/register",
		Register: true,
		Next:     localPath(r.URL.Query().Get("next"), "/"),
	})
}

// LoginForm handles POST /login.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.credentialsForm(w, r, false)
}

// RegisterForm handles POST /register.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.credentialsForm(w, r, true)
}

func (h *Handler) credentialsForm(w http.ResponseWriter, r *http.Request, register bool) {
	creds := models.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	next := localPath(r.PostFormValue("next"), "/")

	var (
		u   *models.User
		err error
	)
	if register {
		u, err = h.backend.Register(r.Context(), creds)
	} else {
		u, err = h.backend.Login(r.Context(), creds)
	}
	if err == nil {
		err = h.backend.StartSession(r.Context(), w, r, u)
	}
	if err != nil {
		data := authPageData{Title: "Sign in", Action: "/login", Username: creds.Username, Next: next, Error: userMessage(err)}
		if register {
			data.Title, data.Action, data.Register = "Create account", "/register", true
		}
		h.render(w, r, statusFor(err), "auth", data)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// LogoutForm handles POST /logout.
func (h *Handler) LogoutForm(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Logout(r.Context(), w, r); err != nil {
		comments.LogSink{Source: "logout"}.Report(r.Context(), err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ConsentForm handles POST /consent and hides the cookie banner.
func (h *Handler) ConsentForm(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ConsentCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   int(consentMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, localPath(r.PostFormValue("return"), "/"), http.StatusSeeOther)
}

func formLocation(r *http.Request) (models.Location, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get("lat")), 64)
	if err != nil {
		return models.Location{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get("lng")), 64)
	if err != nil {
		return models.Location{}, false
	}
	return models.Location{Latitude: lat, Longitude: lng}, true
}
