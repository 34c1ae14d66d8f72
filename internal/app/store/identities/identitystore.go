package identitystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no identity matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicate is returned when the email or federated subject is taken.
	ErrDuplicate = errors.New("an identity with this email already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identities")}
}

// Create inserts id. The caller assigns the ID; email is normalized here.
func (s *Store) Create(ctx context.Context, id models.Identity) (models.Identity, error) {
	id.Email = normalize.Email(id.Email)
	id.DisplayName = normalize.Name(id.DisplayName)
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, id); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Identity{}, ErrDuplicate
		}
		return models.Identity{}, err
	}
	return id, nil
}

// GetByID loads an identity by its opaque id.
func (s *Store) GetByID(ctx context.Context, id string) (models.Identity, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up an identity by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Identity, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByGoogleSub looks up an identity by its Google subject.
func (s *Store) GetByGoogleSub(ctx context.Context, sub string) (models.Identity, error) {
	if sub == "" {
		return models.Identity{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"google_sub": sub})
}

// SetGoogleSub links a Google subject to an existing identity.
func (s *Store) SetGoogleSub(ctx context.Context, id, sub string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"google_sub": sub}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Identity, error) {
	var out models.Identity
	if err := s.c.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Identity{}, ErrNotFound
		}
		return models.Identity{}, err
	}
	return out, nil
}
