// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/tomtom215/communitymap/internal/backend"
	"github.com/tomtom215/communitymap/internal/comments"
	"github.com/tomtom215/communitymap/internal/logging"
	"github.com/tomtom215/communitymap/internal/models"
	"github.com/tomtom215/communitymap/internal/shell"
)

// ConsentCookie hides the cookie banner once set.
const ConsentCookie = "cookie_consent"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"seconds": func(d time.Duration) int {
		s := int(math.Ceil(d.Seconds()))
		if s < 1 {
			s = 1
		}
		return s
	},
}).ParseFS(templateFS, "templates/*.html"))

// formState carries a failed form post back into the page so the user
// keeps what they typed.
type formState struct {
	status int
	err    string
	value  string
	object models.NewObjectItem
}

type pageData struct {
	Page        shell.Page
	Title       string
	User        *models.User
	APIKey      string
	Locate      bool
	MapOptions  template.JS
	ShowConsent bool
	ReturnTo    string
	Modal       *modalData
	NewObject   models.NewObjectItem
	ObjectTypes []string
	FormError   string
}

type modalData struct {
	Title    string
	Size     string
	Error    string
	View     shell.View
	CloseURL string

	Object   *models.ObjectItem
	Author   comments.Author
	Comments template.HTML

	Profile    *backend.Profile
	MessageURL string

	Peer     comments.Author
	Messages []messageItem
	Draft    string
	Action   string

	Conversations []conversationItem
}

type messageItem struct {
	Author      comments.Author
	Mine        bool
	Content     string
	CreatedText string
}

type conversationItem struct {
	Peer        comments.Author
	URL         string
	LastMessage string
	LastAtText  string
}

// Page returns the handler for one route of the page table.
func (h *Handler) Page(route shell.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.servePage(w, r, route, formState{})
	}
}

// servePage resolves the shell state for r and renders it. fs is non-zero
// when a form post failed.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, route shell.Route, fs formState) {
	var param string
	if route.Param != "" {
		param = chi.URLParam(r, route.Param)
	}
	p := h.shell.Resolve(r, route, param)

	if p.ConfigError != "" {
		writeConfigError(w)
		return
	}
	if p.SplashCookie != nil {
		http.SetCookie(w, p.SplashCookie)
	}

	data := pageData{Page: p, Title: "CommunityMap"}

	switch p.State {
	case shell.StateInitializing:
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(p.RefreshAfter.Seconds()))))
		h.render(w, r, http.StatusServiceUnavailable, "splash", data)
		return
	case shell.StateSplash:
		h.render(w, r, http.StatusOK, "splash", data)
		return
	}

	data.User = p.Auth.User
	data.APIKey = h.cfg.Maps.APIKey
	data.Locate = h.cfg.Geocode.Enabled
	data.MapOptions = h.mapOpts.TemplateJS()
	data.ShowConsent = !p.Embedded() && !hasCookie(r, ConsentCookie)
	data.ReturnTo = r.URL.RequestURI()
	data.NewObject = fs.object
	data.ObjectTypes = models.ObjectTypes

	status := http.StatusOK
	if route.Modal {
		var err error
		data.Modal, err = h.modal(r, p, fs)
		if err != nil {
			status = statusFor(err)
			data.Modal.Error = userMessage(err)
		}
		if data.Modal.Title != "" {
			data.Title = data.Modal.Title + " - CommunityMap"
		}
	} else if fs.err != "" {
		data.FormError = fs.err
	}
	if fs.status != 0 {
		status = fs.status
	}
	h.render(w, r, status, "app", data)
}

// modal loads what the modal of p shows. On error the returned modal is
// still usable, with only the frame filled in.
func (h *Handler) modal(r *http.Request, p shell.Page, fs formState) (*modalData, error) {
	ctx := r.Context()
	locale := comments.MatchLocale(r.Header.Get("Accept-Language"))
	user := p.Auth.User
	m := &modalData{
		Title:    p.Route.Title,
		Size:     p.Route.Size,
		View:     p.Route.View,
		CloseURL: p.CloseURL,
	}

	switch p.Route.View {
	case shell.ViewObject:
		return m, h.objectModal(ctx, m, p, user, locale, fs)
	case shell.ViewUserProfile:
		prof, err := h.backend.Profile(ctx, p.RouteParam)
		if err != nil {
			return m, err
		}
		m.Profile = prof
		m.Title = prof.User.Name
		if user != nil && user.ID != prof.User.ID {
			m.MessageURL = p.Link("/direct-messages/" + models.DMKey(user.ID, prof.User.ID))
		}
	case shell.ViewDirectMessages:
		return m, h.messagesModal(ctx, m, p, user, locale, fs)
	case shell.ViewMyMessages:
		convs, err := h.backend.MyConversations(ctx, user)
		if err != nil {
			return m, err
		}
		authors := h.backend.AuthorRenderer(ctx)
		for _, c := range convs {
			m.Conversations = append(m.Conversations, conversationItem{
				Peer:        authors(c.Peer),
				URL:         p.Link("/direct-messages/" + c.DMKey),
				LastMessage: c.LastMessage,
				LastAtText:  comments.FormatTime(c.LastAt, locale),
			})
		}
	}
	return m, nil
}

func (h *Handler) objectModal(ctx context.Context, m *modalData, p shell.Page, user *models.User, locale language.Tag, fs formState) error {
	d, err := h.backend.ObjectDetail(ctx, p.RouteParam)
	if err != nil {
		return err
	}
	authors := h.backend.AuthorRenderer(ctx)
	m.Object = d.Object
	m.Title = d.Object.Title
	m.Author = authors(d.Object.Author)

	m.Comments, err = comments.HTML(comments.View{
		Items:   comments.List(d.Comments, authors, locale),
		Action:  p.Link("/object/" + d.Object.ID + "/comments"),
		Value:   fs.value,
		Error:   fs.err,
		CanPost: user != nil,
	})
	return err
}

func (h *Handler) messagesModal(ctx context.Context, m *modalData, p shell.Page, user *models.User, locale language.Tag, fs formState) error {
	m.Action = p.Link("/direct-messages/" + p.RouteParam)
	m.Draft = fs.value
	m.Error = fs.err

	msgs, err := h.backend.DirectMessages(ctx, user, p.RouteParam)
	if err != nil {
		return err
	}
	authors := h.backend.AuthorRenderer(ctx)
	m.Peer = authors(models.Peer(p.RouteParam, user.ID))
	m.Title = m.Peer.Name
	for _, msg := range msgs {
		m.Messages = append(m.Messages, messageItem{
			Author:      authors(msg.Author),
			Mine:        msg.Author == user.ID,
			Content:     msg.Content,
			CreatedText: comments.FormatTime(msg.Created, locale),
		})
	}
	return nil
}

// render executes a template into a buffer first so a template error never
// leaves a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write page")
	}
}

// writeConfigError writes the embed configuration message and nothing else.
func writeConfigError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	//nolint:errcheck // client went away
	w.Write([]byte(shell.ConfigErrorMessage))
}

// RequireAppID rejects embedded requests without an appId before they reach
// a handler, so no embedded write is accepted without one.
func RequireAppID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shell.IsEmbedPath(r.URL.Path) && shell.ParseParams(r.URL.Query()).String(shell.ParamAppID) == "" {
			writeConfigError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}
