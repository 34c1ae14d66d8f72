package home

import (
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"go.uber.org/zap"
)

// Handler serves the public landing page.
type Handler struct {
	SessionMgr    *auth.SessionManager
	SiteName      string
	GoogleEnabled bool
	Log           *zap.Logger
}

func NewHandler(sm *auth.SessionManager, siteName string, googleEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		SessionMgr:    sm,
		SiteName:      siteName,
		GoogleEnabled: googleEnabled,
		Log:           logger,
	}
}

type link struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
| Links follow the session's current triple; an unresolved session gets the  |
| signed-out links until it resolves.                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	signedIn := false
	links := []link{{"Sign in", "/login"}}
	if h.GoogleEnabled {
		links = append(links, link{"Sign in with Google", "/auth/google"})
	}

	if res, ok := auth.ResolverFrom(r); ok {
		t := res.Current()
		check := h.SessionMgr.AdminCheck()
		if gate.CanEnter(gate.Participant, t, check) {
			signedIn = true
			links = []link{{"Dashboard", "/dashboard"}}
			if gate.CanEnter(gate.Admin, t, check) {
				links = append(links, link{"Admin console", "/admin"})
			}
			links = append(links, link{"Sign out", "/logout"})
		}
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"site":      h.SiteName,
		"signed_in": signedIn,
		"links":     links,
	})
}
