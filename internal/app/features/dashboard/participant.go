// internal/app/features/dashboard/participant.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/campushub/internal/app/store/metrics"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type viewerVM struct {
	IdentityID string `json:"identity_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsAdmin    bool   `json:"is_admin"`
}

type participantCounts struct {
	MyComplaints        int64 `json:"my_complaints"`
	MyOpenComplaints    int64 `json:"my_open_complaints"`
	MyRegistrations     int64 `json:"my_volunteer_registrations"`
	UnreadNotifications int64 `json:"unread_notifications"`
	ScheduledActivities int64 `json:"scheduled_activities"`
}

// ServeDashboard handles GET /dashboard: who the caller is, their personal
// counts and the participant sections.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.ViewerFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	var counts participantCounts
	mine := bson.M{"submitter_id": v.IdentityID}
	h.count(ctx, "my_complaints", h.Sources.Complaints, mine, &counts.MyComplaints)
	h.count(ctx, "my_open_complaints", h.Sources.Complaints,
		bson.M{"submitter_id": v.IdentityID, "status": models.ComplaintOpen}, &counts.MyOpenComplaints)
	h.count(ctx, "my_registrations", h.Sources.Volunteers, mine, &counts.MyRegistrations)
	h.count(ctx, "scheduled_activities", h.Sources.Activities,
		bson.M{"status": models.ActivityScheduled}, &counts.ScheduledActivities)

	if h.Notifications != nil {
		notes, err := h.Notifications.List(ctx, bson.M{"recipient_id": bson.M{"$in": []string{v.IdentityID, ""}}})
		if err != nil {
			h.Log.Warn("dashboard count failed", zap.String("counter", "unread_notifications"), zap.Error(err))
		}
		for i := range notes {
			if !notes[i].IsReadBy(v.IdentityID) {
				counts.UnreadNotifications++
			}
		}
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"viewer": viewerVM{
			IdentityID: v.IdentityID,
			Name:       v.Name,
			Email:      v.Email,
			Role:       v.Role,
			IsAdmin:    v.IsAdmin,
		},
		"counts":   counts,
		"sections": participantSections,
	})
}

func (h *Handler) count(ctx context.Context, name string, c metricsstore.Counter, filter bson.M, dst *int64) {
	if c == nil {
		return
	}
	n, err := c.Count(ctx, filter)
	if err != nil {
		h.Log.Warn("dashboard count failed", zap.String("counter", name), zap.Error(err))
		return
	}
	*dst = n
}
