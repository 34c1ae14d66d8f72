// internal/app/features/complaints/handler.go
package complaints

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
const Collection = "complaints"

// Handler serves complaints for both realms.
type Handler struct {
	*collection.Handler[models.Complaint, *models.Complaint]
}

// NewHandler constructs a complaints Handler over store.
func NewHandler(store collection.Store[models.Complaint], deps collection.Deps) *Handler {
	return &Handler{collection.NewHandler[models.Complaint, *models.Complaint](Schema(), store, deps)}
}

// Schema describes complaints. Participants see only their own; the
// console reviews status and notes.
func Schema() collection.Schema[models.Complaint] {
	return collection.Schema[models.Complaint]{
		Noun:  "complaint",
		Topic: Collection,
		Enums: []string{"status", "category"},
		Fields: listview.Fields[models.Complaint]{
			Text: func(c models.Complaint) []string {
				return []string{c.Title, c.Description, c.Location}
			},
			Enum: func(c models.Complaint, key string) string {
				switch key {
				case "status":
					return c.Status
				case "category":
					return c.Category
				}
				return ""
			},
			Date: func(c models.Complaint) time.Time { return c.CreatedAt },
		},
		OwnerOnly: true,
		Prepare: func(c *models.Complaint, _ auth.Viewer) {
			clean(c)
			c.Status = models.ComplaintOpen
			c.AdminNote = ""
			if c.Category == "" {
				c.Category = "other"
			}
		},
		Normalize:     clean,
		OwnerFields:   []string{"title", "description", "category", "location"},
		ConsoleFields: []string{"status", "admin_note"},
	}
}

func clean(c *models.Complaint) {
	c.Title = htmlsanitize.StripTags(c.Title)
	c.Description = htmlsanitize.Sanitize(c.Description)
	c.Location = htmlsanitize.StripTags(c.Location)
	c.Category = normalize.Status(c.Category)
	c.Status = normalize.Status(c.Status)
	c.AdminNote = htmlsanitize.StripTags(c.AdminNote)
}
