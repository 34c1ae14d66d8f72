// internal/app/features/lostfound/routes.go
package lostfound

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the participant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/live", h.Stream)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/claim", h.Claim)
}

// MountConsoleRoutes mounts the admin routes: list and delete.
func (h *Handler) MountConsoleRoutes(r chi.Router) {
	c := h.Console()
	r.Get("/", c.List)
	r.Get("/{id}", c.Get)
	r.Delete("/{id}", c.Delete)
}
