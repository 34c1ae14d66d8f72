package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Records mirrors recordstore.Store. Filters support top-level equality and
// {"$in": [...]} only. Setting FailWith makes every call return that error.
type Records[T any, P recordstore.Doc[T]] struct {
	mu       sync.Mutex
	rows     []T
	FailWith error
}

func NewRecords[T any, P recordstore.Doc[T]]() *Records[T, P] {
	return &Records[T, P]{}
}

func (s *Records[T, P]) Create(_ context.Context, doc T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.FailWith != nil {
		return zero, s.FailWith
	}
	m := P(&doc).Base()
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt, m.UpdatedAt = now, now
	s.rows = append(s.rows, doc)
	return doc, nil
}

func (s *Records[T, P]) index(id primitive.ObjectID) int {
	for i := range s.rows {
		if P(&s.rows[i]).Base().ID == id {
			return i
		}
	}
	return -1
}

func (s *Records[T, P]) Get(_ context.Context, id primitive.ObjectID) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.FailWith != nil {
		return zero, s.FailWith
	}
	i := s.index(id)
	if i < 0 {
		return zero, recordstore.ErrNotFound
	}
	return s.rows[i], nil
}

func (s *Records[T, P]) List(_ context.Context, filter bson.M) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := []T{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		doc, err := toM(s.rows[i])
		if err != nil {
			return nil, err
		}
		if matches(doc, filter) {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *Records[T, P]) Count(ctx context.Context, filter bson.M) (int64, error) {
	rows, err := s.List(ctx, filter)
	return int64(len(rows)), err
}

func (s *Records[T, P]) Update(_ context.Context, id primitive.ObjectID, set bson.M) (T, error) {
	return s.mutate(id, func(doc bson.M) {
		for k, v := range set {
			doc[k] = v
		}
	})
}

// UpdateWhere applies set only while the record matches cond.
func (s *Records[T, P]) UpdateWhere(_ context.Context, id primitive.ObjectID, cond, set bson.M) (T, error) {
	return s.mutateWhere(id, cond, func(doc bson.M) {
		for k, v := range set {
			doc[k] = v
		}
	})
}

func (s *Records[T, P]) AddToSet(_ context.Context, id primitive.ObjectID, field string, value any) (T, error) {
	return s.mutate(id, func(doc bson.M) {
		arr, _ := doc[field].(bson.A)
		for _, v := range arr {
			if equal(v, value) {
				return
			}
		}
		doc[field] = append(arr, value)
	})
}

func (s *Records[T, P]) mutate(id primitive.ObjectID, fn func(bson.M)) (T, error) {
	return s.mutateWhere(id, nil, fn)
}

func (s *Records[T, P]) mutateWhere(id primitive.ObjectID, cond bson.M, fn func(bson.M)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.FailWith != nil {
		return zero, s.FailWith
	}
	i := s.index(id)
	if i < 0 {
		return zero, recordstore.ErrNotFound
	}
	doc, err := toM(s.rows[i])
	if err != nil {
		return zero, err
	}
	if !matches(doc, cond) {
		return zero, recordstore.ErrNotFound
	}
	fn(doc)
	doc["updated_at"] = time.Now().UTC()
	raw, err := bson.Marshal(doc)
	if err != nil {
		return zero, err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	s.rows[i] = out
	return out, nil
}

func (s *Records[T, P]) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	i := s.index(id)
	if i < 0 {
		return recordstore.ErrNotFound
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

// Len returns the number of stored records.
func (s *Records[T, P]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	err = bson.Unmarshal(raw, &m)
	return m, err
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got := doc[k]
		if op, ok := want.(bson.M); ok {
			in, ok := op["$in"]
			if !ok {
				return false
			}
			rv := reflect.ValueOf(in)
			found := false
			for i := 0; i < rv.Len(); i++ {
				if equal(got, rv.Index(i).Interface()) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
