// Package recordstore persists feature records (complaints, lost-and-found
// items, volunteer entries, activities, notifications). Every collection
// has the same shape, so one generic store serves them all.
package recordstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("record not found")

// Record is implemented by every feature model through its embedded Meta.
type Record interface {
	Base() *models.Meta
}

// Doc constrains P to *T where *T is a Record.
type Doc[T any] interface {
	*T
	Record
}

type Store[T any, P Doc[T]] struct {
	c *mongo.Collection
}

// New returns a store over the named collection.
func New[T any, P Doc[T]](db *mongo.Database, collection string) *Store[T, P] {
	return &Store[T, P]{c: db.Collection(collection)}
}

// Name returns the collection name.
func (s *Store[T, P]) Name() string { return s.c.Name() }

// Create assigns an id and timestamps and inserts doc.
func (s *Store[T, P]) Create(ctx context.Context, doc T) (T, error) {
	m := P(&doc).Base()
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

// Get loads one record.
func (s *Store[T, P]) Get(ctx context.Context, id primitive.ObjectID) (T, error) {
	var out T
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	return out, err
}

// List returns the records matching filter, newest first.
func (s *Store[T, P]) List(ctx context.Context, filter bson.M) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies set to one record, stamps updated_at, and returns the
// record as stored afterwards.
func (s *Store[T, P]) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (T, error) {
	return s.apply(ctx, id, bson.M{"$set": withUpdatedAt(set)})
}

// AddToSet adds value to the array field without duplicating it.
func (s *Store[T, P]) AddToSet(ctx context.Context, id primitive.ObjectID, field string, value any) (T, error) {
	return s.apply(ctx, id, bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
}

// UpdateWhere applies set only if the record still matches cond, so a
// check and its write happen in one step. A record that is missing or no
// longer matches yields ErrNotFound.
func (s *Store[T, P]) UpdateWhere(ctx context.Context, id primitive.ObjectID, cond, set bson.M) (T, error) {
	filter := make(bson.M, len(cond)+1)
	for k, v := range cond {
		filter[k] = v
	}
	filter["_id"] = id
	return s.applyWhere(ctx, filter, bson.M{"$set": withUpdatedAt(set)})
}

func (s *Store[T, P]) apply(ctx context.Context, id primitive.ObjectID, update bson.M) (T, error) {
	return s.applyWhere(ctx, bson.M{"_id": id}, update)
}

func (s *Store[T, P]) applyWhere(ctx context.Context, filter, update bson.M) (T, error) {
	var out T
	err := s.c.FindOneAndUpdate(ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	return out, err
}

// Delete removes one record.
func (s *Store[T, P]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of records matching filter.
func (s *Store[T, P]) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.c.CountDocuments(ctx, filter)
}

func withUpdatedAt(set bson.M) bson.M {
	out := make(bson.M, len(set)+1)
	for k, v := range set {
		out[k] = v
	}
	out["updated_at"] = time.Now().UTC()
	return out
}
