// internal/app/features/sessionapi/handler.go
package sessionapi

import (
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler exposes the caller's session state to the browser.
type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Log: logger}
}

// realmView is the gate's verdict for one realm.
type realmView struct {
	Decision string `json:"decision"`
	Redirect string `json:"redirect,omitempty"`
}

// sessionView is the wire form of a session.Triple.
type sessionView struct {
	SignedIn   bool                 `json:"signed_in"`
	Identity   *models.Identity     `json:"identity"`
	Profile    *models.Profile      `json:"profile"`
	Resolved   bool                 `json:"resolved"`
	IsAdmin    bool                 `json:"is_admin"`
	Generation uint64               `json:"generation"`
	FetchError string               `json:"fetch_error,omitempty"`
	Realms     map[string]realmView `json:"realms"`
}

func (h *Handler) view(t session.Triple) sessionView {
	check := h.SessionMgr.AdminCheck()
	v := sessionView{
		SignedIn:   t.SignedIn(),
		Identity:   t.Identity,
		Profile:    t.Profile,
		Resolved:   t.Resolved,
		IsAdmin:    t.Resolved && t.SignedIn() && check.IsAdmin(t.Profile, t.Identity),
		Generation: t.Generation,
		Realms:     make(map[string]realmView, 2),
	}
	if t.FetchErr != nil {
		v.FetchError = t.FetchErr.Error()
	}
	for _, realm := range []gate.Realm{gate.Participant, gate.Admin} {
		d, target := gate.Evaluate(realm, t, check)
		v.Realms[string(realm)] = realmView{Decision: d.String(), Redirect: target}
	}
	return v
}
