// internal/app/features/activities/handler.go
package activities

import (
	"time"

	"github.com/dalemusser/campushub/internal/app/features/collection"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
)

// Collection is the store collection name.
const Collection = "activities"

// Handler serves campus activities. Admins publish them; participants
// browse and follow them live.
type Handler struct {
	*collection.Handler[models.Activity, *models.Activity]
}

// NewHandler constructs an activities Handler over store.
func NewHandler(store collection.Store[models.Activity], deps collection.Deps) *Handler {
	return &Handler{collection.NewHandler[models.Activity, *models.Activity](Schema(), store, deps)}
}

// Schema describes activities.
func Schema() collection.Schema[models.Activity] {
	return collection.Schema[models.Activity]{
		Noun:  "activity",
		Topic: Collection,
		Enums: []string{"status"},
		Fields: listview.Fields[models.Activity]{
			Text: func(a models.Activity) []string {
				return []string{a.Title, a.Description, a.Location}
			},
			Enum: func(a models.Activity, key string) string {
				if key == "status" {
					return a.Status
				}
				return ""
			},
			Date: when,
		},
		Prepare: func(a *models.Activity, _ auth.Viewer) {
			clean(a)
			if a.Status == "" {
				a.Status = models.ActivityScheduled
			}
		},
		Normalize: clean,
		ConsoleFields: []string{
			"title", "description", "location", "starts_at", "ends_at",
			"capacity", "image_url", "status",
		},
	}
}

// when dates an activity by its start, falling back to when it was posted.
func when(a models.Activity) time.Time {
	if a.StartsAt != nil {
		return *a.StartsAt
	}
	return a.CreatedAt
}

func clean(a *models.Activity) {
	a.Title = htmlsanitize.StripTags(a.Title)
	a.Description = htmlsanitize.Sanitize(a.Description)
	a.Location = htmlsanitize.StripTags(a.Location)
	a.ImageURL = normalize.QueryParam(a.ImageURL)
	a.Status = normalize.Status(a.Status)
	if a.StartsAt != nil && a.EndsAt != nil && a.EndsAt.Before(*a.StartsAt) {
		a.EndsAt = nil
	}
}
