// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uniblog/internal/middleware"
)

// Routes returns the /api/v1 router. The caller mounts it behind the
// session, actor and maintenance middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.lp != nil {
				r.Use(h.lp.Middleware())
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/logout", h.Logout)
		r.With(middleware.RequireAuth).Get("/me", h.Me)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Get("/slug/{slug}", h.GetPostBySlug)
		r.With(middleware.RequireAuth).Get("/mine", h.ListMyPosts)
		r.With(middleware.RequireAdmin).Get("/pending", h.ListPendingPosts)
		r.With(middleware.RequireAuth).Post("/", h.CreatePost)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPost)
			r.Get("/comments", h.ListComments)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Put("/", h.UpdatePost)
				r.Delete("/", h.DeletePost)
				r.Post("/submit", h.SubmitPost)
				r.Get("/versions", h.PostVersions)
				r.Post("/comments", h.CreateComment)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/approve", h.ApprovePost)
				r.Post("/reject", h.RejectPost)
			})
		})
	})

	r.Route("/comments/{id}", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Post("/approve", h.ApproveComment)
		r.Delete("/", h.DeleteComment)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)
		r.With(middleware.RequireAdmin).Put("/", h.UpdateSettings)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/pending", h.ListPendingUsers)
		r.Post("/{id}/approve", h.ApproveUser)
	})

	return r
}
