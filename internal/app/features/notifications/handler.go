// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/campushub/internal/app/features/collection"
	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the store collection name.
const Collection = "notifications"

// Store adds the read-marker update to the collection store.
type Store interface {
	collection.Store[models.Notification]
	AddToSet(ctx context.Context, id primitive.ObjectID, field string, value any) (models.Notification, error)
}

// Handler serves notifications. Admins send them; a participant sees the
// ones addressed to them plus broadcasts.
type Handler struct {
	*collection.Handler[models.Notification, *models.Notification]
	notes Store
}

// NewHandler constructs a notifications Handler over store.
func NewHandler(store Store, deps collection.Deps) *Handler {
	return &Handler{
		Handler: collection.NewHandler[models.Notification, *models.Notification](Schema(deps.Audit), store, deps),
		notes:   store,
	}
}

// Schema describes notifications. audit may be nil.
func Schema(audit *auditlog.Logger) collection.Schema[models.Notification] {
	return collection.Schema[models.Notification]{
		Noun:  "notification",
		Topic: Collection,
		Enums: []string{"kind"},
		Fields: listview.Fields[models.Notification]{
			Text: func(n models.Notification) []string { return []string{n.Title, n.Body} },
			Enum: func(n models.Notification, key string) string {
				if key == "kind" {
					return n.Kind
				}
				return ""
			},
			Date: func(n models.Notification) time.Time { return n.CreatedAt },
		},
		Scope: func(v auth.Viewer) bson.M {
			return bson.M{"recipient_id": bson.M{"$in": []string{v.IdentityID, ""}}}
		},
		CanRead: func(v auth.Viewer, n models.Notification) bool {
			return n.IsFor(v.IdentityID)
		},
		Prepare: func(n *models.Notification, _ auth.Viewer) {
			clean(n)
			n.ReadBy = nil
			if n.Kind == "" {
				n.Kind = models.NotificationInfo
			}
		},
		Normalize: clean,
		AfterCreate: func(r *http.Request, v auth.Viewer, n models.Notification) {
			audit.NotificationSent(r.Context(), r, v.IdentityID, n.RecipientID, n.Title)
		},
		Audience: func(n models.Notification) string { return n.RecipientID },
	}
}

func clean(n *models.Notification) {
	n.RecipientID = normalize.QueryParam(n.RecipientID)
	n.Title = htmlsanitize.StripTags(n.Title)
	n.Body = htmlsanitize.Sanitize(n.Body)
	n.Kind = normalize.Status(n.Kind)
}
