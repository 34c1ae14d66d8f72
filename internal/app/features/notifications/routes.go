// internal/app/features/notifications/routes.go
package notifications

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the participant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Inbox)
	r.Get("/live", h.Stream)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/read", h.MarkRead)
}

// MountConsoleRoutes mounts the admin routes: send, list, delete.
func (h *Handler) MountConsoleRoutes(r chi.Router) {
	c := h.Console()
	r.Get("/", c.List)
	r.Post("/", c.Create)
	r.Get("/{id}", c.Get)
	r.Delete("/{id}", c.Delete)
}
