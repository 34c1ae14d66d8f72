// Package memstore holds in-memory stand-ins for the Mongo stores, used by
// handler and session tests that should not need a database.
package memstore

import (
	"context"
	"sync"
	"time"

	identitystore "github.com/dalemusser/campushub/internal/app/store/identities"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
)

// Identities mirrors identitystore.Store.
type Identities struct {
	mu   sync.Mutex
	byID map[string]models.Identity
}

func NewIdentities() *Identities {
	return &Identities{byID: make(map[string]models.Identity)}
}

func (s *Identities) Create(_ context.Context, id models.Identity) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id.Email = normalize.Email(id.Email)
	for _, existing := range s.byID {
		if existing.Email == id.Email || (id.GoogleSub != "" && existing.GoogleSub == id.GoogleSub) {
			return models.Identity{}, identitystore.ErrDuplicate
		}
	}
	if _, ok := s.byID[id.ID]; ok {
		return models.Identity{}, identitystore.ErrDuplicate
	}
	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}
	s.byID[id.ID] = id
	return id, nil
}

func (s *Identities) GetByID(_ context.Context, id string) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	got, ok := s.byID[id]
	if !ok {
		return models.Identity{}, identitystore.ErrNotFound
	}
	return got, nil
}

func (s *Identities) GetByEmail(_ context.Context, email string) (models.Identity, error) {
	return s.find(func(id models.Identity) bool { return id.Email == normalize.Email(email) })
}

func (s *Identities) GetByGoogleSub(_ context.Context, sub string) (models.Identity, error) {
	if sub == "" {
		return models.Identity{}, identitystore.ErrNotFound
	}
	return s.find(func(id models.Identity) bool { return id.GoogleSub == sub })
}

func (s *Identities) SetGoogleSub(_ context.Context, id, sub string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	got, ok := s.byID[id]
	if !ok {
		return identitystore.ErrNotFound
	}
	got.GoogleSub = sub
	s.byID[id] = got
	return nil
}

func (s *Identities) find(match func(models.Identity) bool) (models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.byID {
		if match(id) {
			return id, nil
		}
	}
	return models.Identity{}, identitystore.ErrNotFound
}
