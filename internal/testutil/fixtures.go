package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateIdentity inserts an identity without a password.
func (f *Fixtures) CreateIdentity(ctx context.Context, email, name string) models.Identity {
	f.t.Helper()

	id := models.Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("identities").InsertOne(ctx, id); err != nil {
		f.t.Fatalf("failed to create test identity: %v", err)
	}
	return id
}

// CreateProfile inserts a profile for identityID with the given role.
func (f *Fixtures) CreateProfile(ctx context.Context, identityID, fullName, role string) models.Profile {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		ID:         identityID,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Role:       role,
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateAccount inserts an identity and a matching profile.
func (f *Fixtures) CreateAccount(ctx context.Context, fullName, email, role string) (models.Identity, models.Profile) {
	f.t.Helper()
	id := f.CreateIdentity(ctx, email, fullName)
	return id, f.CreateProfile(ctx, id.ID, fullName, role)
}

// CreateComplaint inserts an open complaint submitted by submitterID.
func (f *Fixtures) CreateComplaint(ctx context.Context, submitterID, title string) models.Complaint {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Complaint{
		Meta: models.Meta{
			ID:          primitive.NewObjectID(),
			SubmitterID: submitterID,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Title:       title,
		Description: "Test description",
		Category:    "facilities",
		Status:      models.ComplaintOpen,
	}
	if _, err := f.db.Collection("complaints").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test complaint: %v", err)
	}
	return c
}
