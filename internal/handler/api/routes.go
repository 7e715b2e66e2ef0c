// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crmkit/crmkit/internal/middleware"
)

// Routes assembles the full HTTP surface: the authenticated REST API under
// /api/v1, the public trigger endpoint under /l, and the health check.
func Routes(h *Handler, apiKey string, trigger *middleware.IPRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(trigger.Middleware())
		r.Get("/l/{linkID}", h.Trigger)
		r.Post("/l/{linkID}", h.Trigger)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKey))

		r.Get("/status", h.Status)
		r.Get("/events", h.ListEvents)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Put("/", h.UpdateProject)
				r.Delete("/", h.DeleteProject)

				r.Route("/contacts", func(r chi.Router) {
					r.Get("/", h.ListContacts)
					r.Post("/", h.CreateContact)
					r.Get("/search", h.SearchContacts)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.GetContact)
						r.Put("/", h.UpdateContact)
						r.Delete("/", h.DeleteContact)
						r.Get("/tags", h.ListContactTags)
						r.Put("/tags", h.SetContactTags)
					})
				})

				r.Route("/tags", func(r chi.Router) {
					r.Get("/", h.ListTags)
					r.Post("/", h.CreateTag)
					r.Delete("/{id}", h.DeleteTag)
				})

				r.Route("/messages", func(r chi.Router) {
					r.Get("/", h.ListMailMessages)
					r.Post("/", h.CreateMailMessage)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.GetMailMessage)
						r.Put("/", h.UpdateMailMessage)
						r.Delete("/", h.DeleteMailMessage)
						r.Get("/stats", h.MailMessageStats)
					})
				})

				r.Route("/actions", func(r chi.Router) {
					r.Get("/", h.ListActionRoots)
					r.Post("/", h.AddAction)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", h.GetActionTree)
						r.Put("/", h.ReplaceAction)
						r.Delete("/", h.RemoveAction)
						r.Post("/move", h.MoveAction)
						r.Post("/copy", h.CopyAction)
						r.Get("/links", h.ListActionLinks)
						r.Post("/links", h.CreateActionLink)
					})
				})

				r.Route("/portals", func(r chi.Router) {
					r.Get("/", h.ListPortals)
					r.Post("/", h.CreatePortal)
				})
			})
		})

		r.Route("/portals/{portalID}", func(r chi.Router) {
			r.Get("/", h.GetPortal)
			r.Put("/", h.UpdatePortal)
			r.Delete("/", h.DeletePortal)
			r.Get("/layers", h.ResolveLayers)
			r.Get("/navigation", h.PortalNavigation)

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", h.ListPages)
				r.Post("/", h.AddPage)
				r.Get("/search", h.SearchPages)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetPage)
					r.Put("/", h.ReplacePage)
					r.Delete("/", h.RemovePage)
					r.Put("/master", h.SetPageMaster)
				})
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", h.ListMedia)
				r.Post("/", h.AddMedia)
				r.Delete("/{id}", h.RemoveMedia)
			})
		})
	})

	return r
}
