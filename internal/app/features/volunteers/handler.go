// internal/app/features/volunteers/handler.go
package volunteers

import (
	"strings"
	"time"

	"github.com/dalemusser/campushub/internal/app/features/collection"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
)

// Collection is the store collection name.
const Collection = "volunteers"

// Handler serves volunteer registrations.
type Handler struct {
	*collection.Handler[models.Volunteer, *models.Volunteer]
}

// NewHandler constructs a volunteers Handler over store.
func NewHandler(store collection.Store[models.Volunteer], deps collection.Deps) *Handler {
	return &Handler{collection.NewHandler[models.Volunteer, *models.Volunteer](Schema(), store, deps)}
}

// Schema describes volunteer registrations. A new registration waits for
// an admin to approve it; name and email default to the viewer's.
func Schema() collection.Schema[models.Volunteer] {
	return collection.Schema[models.Volunteer]{
		Noun:  "registration",
		Topic: Collection,
		Enums: []string{"status", "activity_id"},
		Fields: listview.Fields[models.Volunteer]{
			Text: func(v models.Volunteer) []string {
				return []string{v.FullName, v.Email, v.Skills, v.Availability}
			},
			Enum: func(v models.Volunteer, key string) string {
				switch key {
				case "status":
					return v.Status
				case "activity_id":
					return v.ActivityID
				}
				return ""
			},
			Date: func(v models.Volunteer) time.Time { return v.CreatedAt },
		},
		OwnerOnly: true,
		Prepare: func(row *models.Volunteer, viewer auth.Viewer) {
			clean(row)
			if row.FullName == "" {
				row.FullName = viewer.Name
			}
			if row.Email == "" {
				row.Email = viewer.Email
			}
			row.Status = models.VolunteerPending
		},
		Normalize: clean,
		OwnerFields: []string{
			"full_name", "email", "phone", "skills", "availability", "activity_id",
		},
		ConsoleFields: []string{"status"},
	}
}

func clean(v *models.Volunteer) {
	v.FullName = normalize.Name(htmlsanitize.StripTags(v.FullName))
	v.Email = normalize.Email(v.Email)
	v.Phone = strings.TrimSpace(v.Phone)
	v.Skills = htmlsanitize.StripTags(v.Skills)
	v.Availability = htmlsanitize.StripTags(v.Availability)
	v.ActivityID = strings.TrimSpace(v.ActivityID)
	v.Status = normalize.Status(v.Status)
}
