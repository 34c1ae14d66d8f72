// internal/app/features/lostfound/handler.go
package lostfound

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/campushub/internal/app/features/collection"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the store collection name.
const Collection = "lost_found"

// Store is the board's persistence. recordstore.Store satisfies it.
type Store interface {
	collection.Store[models.LostItem]
	UpdateWhere(ctx context.Context, id primitive.ObjectID, cond, set bson.M) (models.LostItem, error)
}

// Handler serves the lost-and-found board.
type Handler struct {
	*collection.Handler[models.LostItem, *models.LostItem]
	items Store
}

// NewHandler constructs a lost-and-found Handler over store.
func NewHandler(store Store, deps collection.Deps) *Handler {
	return &Handler{
		Handler: collection.NewHandler[models.LostItem, *models.LostItem](Schema(), store, deps),
		items:   store,
	}
}

// Schema describes lost-and-found items. Every participant sees the whole
// board; only the reporter edits an item.
func Schema() collection.Schema[models.LostItem] {
	return collection.Schema[models.LostItem]{
		Noun:  "item",
		Topic: Collection,
		Enums: []string{"kind", "claimed"},
		Fields: listview.Fields[models.LostItem]{
			Text: func(it models.LostItem) []string {
				return []string{it.Title, it.Description, it.Location}
			},
			Enum: func(it models.LostItem, key string) string {
				switch key {
				case "kind":
					return it.Kind
				case "claimed":
					if it.Claimed {
						return "yes"
					}
					return "no"
				}
				return ""
			},
			Date: occurred,
		},
		Prepare: func(it *models.LostItem, _ auth.Viewer) {
			clean(it)
			it.Claimed = false
			it.ClaimedBy = ""
		},
		Normalize: clean,
		OwnerFields: []string{
			"kind", "title", "description", "location",
			"occurred_on", "image_url", "contact",
		},
	}
}

// occurred dates an item by when it was lost or found, falling back to
// when it was reported.
func occurred(it models.LostItem) time.Time {
	if it.OccurredOn != nil {
		return *it.OccurredOn
	}
	return it.CreatedAt
}

func clean(it *models.LostItem) {
	it.Kind = strings.ToLower(strings.TrimSpace(it.Kind))
	it.Title = htmlsanitize.StripTags(it.Title)
	it.Description = htmlsanitize.StripTags(it.Description)
	it.Location = htmlsanitize.StripTags(it.Location)
	it.Contact = htmlsanitize.StripTags(it.Contact)
	it.ImageURL = strings.TrimSpace(it.ImageURL)
}
