// internal/app/features/activities/routes.go
package activities

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the participant routes: browse and follow live.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/live", h.Stream)
	r.Get("/{id}", h.Get)
}

// MountConsoleRoutes mounts the admin routes. The console serves the same
// routes under both /admin/events and /admin/activities.
func (h *Handler) MountConsoleRoutes(r chi.Router) {
	c := h.Console()
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Get("/live", c.Stream)
	r.Get("/{id}", c.Get)
	r.Patch("/{id}", c.Update)
	r.Delete("/{id}", c.Delete)
}
