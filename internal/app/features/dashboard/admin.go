// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/campushub/internal/app/store/metrics"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"go.uber.org/zap"
)

// ServeAdmin handles GET /admin: console totals and sections.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.ViewerFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, h.Sources, h.Log)
	h.Log.Debug("admin dashboard served", zap.String("identity_id", v.IdentityID))

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"viewer": viewerVM{
			IdentityID: v.IdentityID,
			Name:       v.Name,
			Email:      v.Email,
			Role:       v.Role,
			IsAdmin:    v.IsAdmin,
		},
		"counts":   counts,
		"sections": adminSections,
	})
}
