// internal/app/features/sessionapi/routes.go
package sessionapi

import "github.com/go-chi/chi/v5"

// Routes returns the public router mounted at /session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeSession)
	r.Get("/events", h.ServeEvents)
	r.Get("/flashes", h.ServeFlashes)
	return r
}
