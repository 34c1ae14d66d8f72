package metricsstore

import (
	"context"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Counter counts documents matching a filter. recordstore.Store satisfies it.
type Counter interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
}

// RoleCounter tallies profiles by role. profilestore.Store satisfies it.
type RoleCounter interface {
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// Sources are the collections the admin dashboard summarizes.
type Sources struct {
	Profiles      RoleCounter
	Complaints    Counter
	LostFound     Counter
	Volunteers    Counter
	Activities    Counter
	Notifications Counter
}

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	Users               int64            `json:"users"`
	UsersByRole         map[string]int64 `json:"users_by_role"`
	Complaints          int64            `json:"complaints"`
	OpenComplaints      int64            `json:"open_complaints"`
	LostFound           int64            `json:"lost_found"`
	UnclaimedFound      int64            `json:"unclaimed_found"`
	Volunteers          int64            `json:"volunteers"`
	PendingVolunteers   int64            `json:"pending_volunteers"`
	ScheduledActivities int64            `json:"scheduled_activities"`
	Notifications       int64            `json:"notifications"`
}

// FetchDashboardCounts returns the admin dashboard totals.
// A nil or failing counter is logged and reads 0.
func FetchDashboardCounts(ctx context.Context, src Sources, log *zap.Logger) Counts {
	out := Counts{UsersByRole: map[string]int64{}}

	if src.Profiles != nil {
		if byRole, err := src.Profiles.CountByRole(ctx); err == nil {
			out.UsersByRole = byRole
			for _, n := range byRole {
				out.Users += n
			}
		} else {
			log.Warn("dashboard count failed", zap.String("counter", "profiles"), zap.Error(err))
		}
	}

	count := func(name string, c Counter, filter bson.M, dst *int64) {
		if c == nil {
			return
		}
		n, err := c.Count(ctx, filter)
		if err != nil {
			log.Warn("dashboard count failed", zap.String("counter", name), zap.Error(err))
			return
		}
		*dst = n
	}

	count("complaints", src.Complaints, bson.M{}, &out.Complaints)
	count("open_complaints", src.Complaints, bson.M{"status": models.ComplaintOpen}, &out.OpenComplaints)
	count("lost_found", src.LostFound, bson.M{}, &out.LostFound)
	count("unclaimed_found", src.LostFound, bson.M{"kind": models.KindFound, "claimed": false}, &out.UnclaimedFound)
	count("volunteers", src.Volunteers, bson.M{}, &out.Volunteers)
	count("pending_volunteers", src.Volunteers, bson.M{"status": models.VolunteerPending}, &out.PendingVolunteers)
	count("scheduled_activities", src.Activities, bson.M{"status": models.ActivityScheduled}, &out.ScheduledActivities)
	count("notifications", src.Notifications, bson.M{}, &out.Notifications)

	return out
}
