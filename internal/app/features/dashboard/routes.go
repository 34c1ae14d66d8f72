// internal/app/features/dashboard/routes.go
package dashboard

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the participant index at "/" of the /dashboard
// subrouter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ServeDashboard)
}

// MountAdminRoutes mounts the console index at "/" of the /admin subrouter.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.ServeAdmin)
}
