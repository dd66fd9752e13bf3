// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/communitymap/internal/auth"
	"github.com/tomtom215/communitymap/internal/authz"
	"github.com/tomtom215/communitymap/internal/middleware"
	"github.com/tomtom215/communitymap/internal/shell"
	"github.com/tomtom215/communitymap/internal/websocket"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	sessions      *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	ws            http.Handler
}

// NewRouter creates the router. mw may be nil for defaults.
func NewRouter(h *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(ChiMiddlewareConfigFrom(h.cfg.Security))
	}
	router := &Router{
		handler:       h,
		sessions:      h.backend.Sessions(),
		chiMiddleware: mw,
	}
	router.authz = authz.NewMiddleware(h.backend.Enforcer(), func(w http.ResponseWriter, r *http.Request, status int) {
		code, ok := statusCodes[status]
		if !ok {
			code = ErrCodeInternalError
		}
		NewResponseWriter(w, r).Error(status, code, http.StatusText(status))
	})
	if h.hub != nil {
		router.ws = websocket.NewHandler(h.hub, h.cfg.Security.CORSOrigins, subjectID)
	}
	return router
}

func subjectID(r *http.Request) string {
	if s := auth.GetSubject(r.Context()); s != nil {
		return s.ID
	}
	return ""
}

// SetupChi builds the full route tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	mw := router.chiMiddleware
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.sessions.Authenticate)

	r.Route("/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())
	if router.ws != nil {
		r.Get("/ws", router.ws.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.CORS())
		r.Use(SecurityHeaders(false))
		r.Use(middleware.PrometheusMetrics)

		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimitAuth()).Post("/login", h.Login)
			r.With(mw.RateLimitAuth()).Post("/register", h.Register)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Post("/viewport", h.Viewport)
			r.Get("/maps/options", h.MapOptions)
			r.Get("/geocode", h.Geocode)

			r.Get("/objects", h.ListObjects)
			r.With(router.authz.Authorize(authz.ObjObject, authz.ActCreate)).Post("/objects", h.CreateObject)
			r.Get("/objects/{id}", h.GetObject)
			r.Delete("/objects/{id}", h.DeleteObject)
			r.Get("/objects/{id}/comments", h.ListComments)
			r.With(router.authz.Authorize(authz.ObjComment, authz.ActCreate)).Post("/objects/{id}/comments", h.CreateComment)

			r.Get("/users/{id}", h.GetUser)

			r.Get("/direct-messages/{dmKey}", h.ListDirectMessages)
			r.Post("/direct-messages/{dmKey}", h.SendDirectMessage)
			r.With(router.authz.Authorize(authz.ObjMessage, authz.ActReadOwn)).Get("/my-messages", h.MyMessages)

			r.With(router.authz.Authorize(authz.ObjUser, authz.ActManage)).Get("/admin/policy", h.Policy)
		})
	})

	r.Group(func(r chi.Router) {
		router.pages(r, false)

		r.Get("/login", h.LoginPage)
		r.With(mw.RateLimitAuth()).Post("/login", h.LoginForm)
		r.Get("/register", h.RegisterPage)
		r.With(mw.RateLimitAuth()).Post("/register", h.RegisterForm)
		r.Post("/logout", h.LogoutForm)
		r.Post("/consent", h.ConsentForm)
	})
	r.Route(shell.EmbedBasename, func(r chi.Router) {
		router.pages(r, true)
	})

	return r
}

// pages registers the page table and its form posts on r. Embedded pages
// are frameable.
func (router *Router) pages(r chi.Router, embedded bool) {
	h := router.handler
	r.Use(SecurityHeaders(embedded))
	r.Use(middleware.PrometheusMetrics)

	for _, route := range shell.Routes {
		r.Get(route.Pattern, h.Page(route))
	}

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(RequireAppID)
		r.Post("/object", h.PostObjectForm)
		r.Post("/object/{objectId}/comments", h.PostCommentForm)
		r.Post("/direct-messages/{dmKey}", h.PostMessageForm)
	})
}
