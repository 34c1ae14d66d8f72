// internal/app/features/complaints/routes.go
package complaints

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the participant routes. Participants manage their own
// complaints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// MountConsoleRoutes mounts the admin routes: review every complaint,
// change status and note, delete.
func (h *Handler) MountConsoleRoutes(r chi.Router) {
	c := h.Console()
	r.Get("/", c.List)
	r.Get("/{id}", c.Get)
	r.Patch("/{id}", c.Update)
	r.Delete("/{id}", c.Delete)
}
