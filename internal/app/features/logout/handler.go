// internal/app/features/logout/handler.go
package logout

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *session.Accounts
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(accounts *session.Accounts, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Log:        logger,
	}
}

// ServeLogout handles POST /logout. The session's resolver starts a
// signed-out generation, so open /session/events streams see the change
// and any gated page evicts itself. Signing out twice is harmless.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	identityID := ""
	if res, ok := auth.ResolverFrom(r); ok {
		identityID = res.Current().IdentityID()
	}

	h.Accounts.Logout(auth.SID(r))
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if identityID != "" {
		h.AuditLog.Logout(r.Context(), r, identityID)
		h.Log.Info("signed out", zap.String("identity_id", identityID))
	}

	switch {
	case r.Header.Get("HX-Request") != "":
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
	case strings.Contains(r.Header.Get("Accept"), "application/json"):
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"redirect": "/"})
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
