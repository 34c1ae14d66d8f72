// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the public sign-in routes at the router root.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.ServeLoginPage)
	r.Post("/login", h.HandleLogin)
	r.Post("/admin-login", h.HandleAdminLogin)
	r.Post("/signup", h.HandleSignup)
}
