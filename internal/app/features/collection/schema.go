// Package collection serves the list, get, create, update and delete
// endpoints shared by every feature record type.
package collection

import (
	"context"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence a Handler needs. recordstore.Store satisfies it.
type Store[T any] interface {
	Create(ctx context.Context, doc T) (T, error)
	Get(ctx context.Context, id primitive.ObjectID) (T, error)
	List(ctx context.Context, filter bson.M) ([]T, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (T, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Flasher queues one-shot messages for the next page load.
// *auth.SessionManager satisfies it.
type Flasher interface {
	AddFlash(w http.ResponseWriter, r *http.Request, kind, msg string)
}

// Schema describes one record type.
type Schema[T any] struct {
	// Noun names one record in messages ("complaint").
	Noun string
	// Topic is the live feed topic. Empty disables publishing.
	Topic string

	// Enums lists the query parameters filtered by equality.
	Enums []string
	// Fields tells the list filter how to read a record.
	Fields listview.Fields[T]

	// OwnerOnly limits participants to their own records.
	OwnerOnly bool
	// Scope, when set, replaces the participant list filter.
	Scope func(v auth.Viewer) bson.M
	// CanRead, when set, replaces the participant read check.
	CanRead func(v auth.Viewer, row T) bool

	// Prepare fills defaults on a new record before validation.
	Prepare func(row *T, v auth.Viewer)
	// Normalize runs on a merged update before validation.
	Normalize func(row *T)

	// OwnerFields are the bson keys a submitter (or an admin in the
	// participant realm) may change.
	OwnerFields []string
	// ConsoleFields are the bson keys the admin console may change.
	ConsoleFields []string

	// AfterCreate runs once a new record is stored.
	AfterCreate func(r *http.Request, v auth.Viewer, row T)

	// Audience returns the identity a live event is addressed to; empty
	// means everyone.
	Audience func(row T) string
}
