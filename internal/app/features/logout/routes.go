// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// MountRoutes mounts POST /logout at the router root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.ServeLogout)
}
