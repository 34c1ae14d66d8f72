// internal/app/features/users/users.go
package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	profilestore "github.com/dalemusser/campushub/internal/app/store/profiles"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/limits"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var fields = listview.Fields[models.Profile]{
	Text: func(p models.Profile) []string { return []string{p.FullName, p.Email} },
	Enum: func(p models.Profile, key string) string {
		switch key {
		case "role":
			return p.Role
		case "status":
			if p.Status == "" {
				return models.StatusActive
			}
			return p.Status
		}
		return ""
	},
	Date: func(p models.Profile) time.Time { return p.CreatedAt },
}

// List pages through every profile ordered by name. Accepts q, role,
// status, from, to, start and limit.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	profiles, err := h.Profiles.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list profiles failed", err, "Could not load users.")
		return
	}
	q := listview.ParseQuery(r, "role", "status")
	uierrors.JSON(w, http.StatusOK, listview.Apply(profiles, q, fields))
}

// Show returns one profile.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.NotFound(w, "That user was not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "Could not load the user.")
		return
	}
	uierrors.JSON(w, http.StatusOK, p)
}

type patchInput struct {
	Role   *string `json:"role,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Update changes a user's role and/or status. Every live session of that
// user re-resolves so the gate sees the change on the next request.
// Admins cannot demote or disable themselves.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.ViewerFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}
	id := chi.URLParam(r, "id")

	var in patchInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxProfileBody)).Decode(&in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	if in.Role == nil && in.Status == nil {
		uierrors.BadRequest(w, "Nothing to change.")
		return
	}
	if in.Role != nil {
		role := normalize.Role(*in.Role)
		if !models.IsValidRole(role) {
			uierrors.Write(w, http.StatusUnprocessableEntity, profilestore.ErrBadRole.Error())
			return
		}
		in.Role = &role
	}
	if in.Status != nil {
		status := normalize.Status(*in.Status)
		if status != models.StatusActive && status != models.StatusDisabled {
			uierrors.Write(w, http.StatusUnprocessableEntity, profilestore.ErrBadStatus.Error())
			return
		}
		in.Status = &status
	}
	if id == v.IdentityID {
		if in.Role != nil && *in.Role != models.RoleAdmin {
			uierrors.Forbidden(w, "You cannot remove your own admin role.")
			return
		}
		if in.Status != nil && *in.Status != models.StatusActive {
			uierrors.Forbidden(w, "You cannot disable your own account.")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	before, err := h.Profiles.GetByID(ctx, id)
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.NotFound(w, "That user was not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "Could not load the user.")
		return
	}

	// Once any write lands, live sessions must re-resolve even if a later
	// write fails.
	wrote := false
	defer func() {
		if wrote && h.Sessions != nil {
			n := h.Sessions.RefreshIdentity(id)
			h.Log.Info("user sessions refreshed",
				zap.String("identity_id", id),
				zap.Int("sessions_refreshed", n))
		}
	}()

	after := before
	if in.Role != nil {
		after, err = h.Profiles.SetRole(ctx, id, *in.Role)
		if !h.handleSetErr(w, r, err) {
			return
		}
		wrote = true
		if after.Role != before.Role {
			h.Audit.RoleChanged(r.Context(), r, v.IdentityID, id, before.Role, after.Role)
		}
	}
	if in.Status != nil {
		after, err = h.Profiles.SetStatus(ctx, id, *in.Status)
		if !h.handleSetErr(w, r, err) {
			return
		}
		wrote = true
		if after.Status != before.Status {
			h.Audit.StatusChanged(r.Context(), r, v.IdentityID, id, before.Status, after.Status)
		}
	}

	h.Log.Info("user updated",
		zap.String("identity_id", id),
		zap.String("role", after.Role),
		zap.String("status", after.Status))
	uierrors.JSON(w, http.StatusOK, after)
}

func (h *Handler) handleSetErr(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, profilestore.ErrBadRole), errors.Is(err, profilestore.ErrBadStatus):
		uierrors.Write(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, profilestore.ErrNotFound):
		uierrors.NotFound(w, "That user was not found.")
	default:
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "Could not update the user.")
	}
	return false
}
