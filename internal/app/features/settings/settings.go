// internal/app/features/settings/settings.go
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	profilestore "github.com/dalemusser/campushub/internal/app/store/profiles"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/limits"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// settingsView is the GET/PATCH response. Profile is null for an identity
// that has none yet.
type settingsView struct {
	IdentityID string          `json:"identity_id"`
	Email      string          `json:"email"`
	Profile    *models.Profile `json:"profile"`
}

// Show returns the viewer's profile.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.ViewerFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.Find(ctx, v.IdentityID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load own profile failed", err, "Could not load your settings.")
		return
	}
	uierrors.JSON(w, http.StatusOK, settingsView{IdentityID: v.IdentityID, Email: v.Email, Profile: p})
}

// Update applies the owner-editable fields. Role and status are not
// accepted here.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.ViewerFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}

	var in profilestore.SelfUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxProfileBody)).Decode(&in); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	if in.Empty() {
		uierrors.BadRequest(w, "Nothing to change.")
		return
	}
	if in.Bio != nil {
		bio := htmlsanitize.StripTags(*in.Bio)
		in.Bio = &bio
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, err := h.Profiles.UpdateSelf(ctx, v.IdentityID, in)
	if errors.Is(err, profilestore.ErrNotFound) {
		uierrors.NotFound(w, "You do not have a profile yet.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update own profile failed", err, "Could not save your settings.")
		return
	}

	if in.FullName != nil && h.Sessions != nil {
		h.Sessions.RefreshIdentity(v.IdentityID)
	}
	h.Log.Info("profile settings updated", zap.String("identity_id", v.IdentityID))
	uierrors.JSON(w, http.StatusOK, settingsView{IdentityID: v.IdentityID, Email: v.Email, Profile: &p})
}
