// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/navigation"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type pageInfo struct {
	Return           string `json:"return"`
	Error            string `json:"error,omitempty"`
	GoogleEnabled    bool   `json:"google_enabled"`
	AllowAdminSignup bool   `json:"allow_admin_signup"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLoginPage tells the client which sign-in options exist and echoes
// the return target and any error code from a failed redirect flow.
func (h *Handler) ServeLoginPage(w http.ResponseWriter, r *http.Request) {
	uierrors.JSON(w, http.StatusOK, pageInfo{
		Return:           navigation.SafeBackURL(r, "", navigation.DashboardBackURL),
		Error:            query.Get(r, "error"),
		GoogleEnabled:    h.GoogleEnabled,
		AllowAdminSignup: h.AllowAdminSignup,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login and POST /admin-login                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin signs a participant in and sends them into /dashboard.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, gate.Participant)
}

// HandleAdminLogin signs in and sends an administrator into /admin. A
// valid account without the admin role stays signed in but is refused
// the console with 403 and pointed at /dashboard.
func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, gate.Admin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, realm gate.Realm) {
	in, err := readCredentials(w, r)
	if err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	email := normalize.Email(in.Email)

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited", zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
		uierrors.Write(w, http.StatusTooManyRequests, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Accounts.Login(ctx, auth.SID(r), email, in.Password)
	if err != nil {
		h.AuditLog.LoginFailed(r.Context(), r, email, err)
		h.writeIdentityError(w, r, "login failed", err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, id.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "session save after login failed", err, "Could not sign you in.")
		return
	}
	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(r.Context(), r, id.ID, id.Email)
	h.Log.Info("signed in", zap.String("identity_id", id.ID), zap.String("realm", string(realm)))

	if realm == gate.Admin {
		t, err := auth.Resolve(r)
		if err != nil {
			h.ErrLog.LogUnavailable(w, r, "session not resolved after admin login", err, "Session is still loading. Try again.")
			return
		}
		if !gate.CanEnter(gate.Admin, t, h.SessionMgr.AdminCheck()) {
			if isJSON(r) {
				uierrors.JSON(w, http.StatusForbidden, map[string]string{
					"error":    "This account is not an administrator.",
					"redirect": navigation.DashboardBackURL.Fallback,
				})
				return
			}
			http.Redirect(w, r, navigation.DashboardBackURL.Fallback, http.StatusSeeOther)
			return
		}
		finish(w, r, http.StatusOK, id.ID, navigation.SafeBackURL(r, in.Return, navigation.AdminBackURL))
		return
	}
	finish(w, r, http.StatusOK, id.ID, navigation.SafeBackURL(r, in.Return, navigation.DashboardBackURL))
}

// writeIdentityError reports identity-provider errors with their own
// message. Anything else is a server error.
func (h *Handler) writeIdentityError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		uierrors.Write(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrDuplicateEmail):
		uierrors.Write(w, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrWeakPassword):
		uierrors.Write(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "Something went wrong. Please try again.")
	}
}

// landing is where a freshly signed-up account goes.
func landing(role string) navigation.BackURLOptions {
	if role == models.RoleAdmin {
		return navigation.AdminBackURL
	}
	return navigation.DashboardBackURL
}
