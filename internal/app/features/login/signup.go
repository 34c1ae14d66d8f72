// internal/app/features/login/signup.go
package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/navigation"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /signup                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSignup creates an identity and its profile and signs the caller
// in. Identity-provider errors (duplicate email, weak password) are
// returned with their own message.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	in, err := readCredentials(w, r)
	if err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	fields := session.SignupFields{
		FullName: normalize.Name(in.FullName),
		Email:    normalize.Email(in.Email),
		Password: in.Password,
		Role:     normalize.Role(in.Role),
	}
	if res := inputval.Validate(fields); res.HasErrors() {
		uierrors.Validation(w, res)
		return
	}

	if ok, msg := h.Limiter.Check(r, fields.Email); !ok {
		uierrors.Write(w, http.StatusTooManyRequests, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Accounts.Signup(ctx, auth.SID(r), fields)
	if err != nil {
		h.AuditLog.SignupFailed(r.Context(), r, fields.Email, err)
		switch {
		case errors.Is(err, session.ErrAdminSignupDisabled):
			uierrors.Forbidden(w, err.Error())
		case errors.Is(err, session.ErrSignupRole):
			uierrors.Write(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.writeIdentityError(w, r, "signup failed", err)
		}
		return
	}

	if err := h.SessionMgr.SignIn(w, r, id.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "session save after signup failed", err, "Account created, but we could not sign you in.")
		return
	}

	role := fields.Role
	if role == "" {
		role = models.RoleParticipant
	}
	h.AuditLog.Signup(r.Context(), r, id.ID, id.Email, role)
	h.Log.Info("account created", zap.String("identity_id", id.ID), zap.String("role", role))
	finish(w, r, http.StatusCreated, id.ID, navigation.SafeBackURL(r, in.Return, landing(role)))
}
