package home

import "github.com/go-chi/chi/v5"

// MountRoutes mounts GET / at the router root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ServeRoot)
}
