// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the settings routes in the participant realm.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Patch("/", h.Update)
}
