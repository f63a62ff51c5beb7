package web

import "github.com/go-chi/chi/v5"

// SetupRoutes configures the flash routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Route("/flash", func(r chi.Router) {
		r.Get("/", h.Consume)
		r.Delete("/", h.Clear)
		r.Get("/keys", h.Keys)
		r.Get("/sse", h.Stream)
		r.Post("/{type}", h.Set)
	})
}
