package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	profilestore "github.com/dalemusser/campushub/internal/app/store/profiles"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Profiles mirrors profilestore.Store. Setting FailWith makes every call
// return that error.
type Profiles struct {
	mu       sync.Mutex
	byID     map[string]models.Profile
	FailWith error
}

func NewProfiles() *Profiles {
	return &Profiles{byID: make(map[string]models.Profile)}
}

func (s *Profiles) fill(p models.Profile) (models.Profile, error) {
	p.FullName = normalize.Name(p.FullName)
	p.FullNameCI = text.Fold(p.FullName)
	p.Email = normalize.Email(p.Email)
	if p.Role == "" {
		p.Role = models.RoleParticipant
	}
	if !models.IsValidRole(p.Role) {
		return models.Profile{}, profilestore.ErrBadRole
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return p, nil
}

func (s *Profiles) Create(_ context.Context, p models.Profile) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Profile{}, s.FailWith
	}
	if _, ok := s.byID[p.ID]; ok {
		return models.Profile{}, profilestore.ErrExists
	}
	p, err := s.fill(p)
	if err != nil {
		return models.Profile{}, err
	}
	s.byID[p.ID] = p
	return p, nil
}

func (s *Profiles) EnsureDefault(_ context.Context, p models.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}
	if _, ok := s.byID[p.ID]; ok {
		return false, nil
	}
	p, err := s.fill(p)
	if err != nil {
		return false, err
	}
	s.byID[p.ID] = p
	return true, nil
}

func (s *Profiles) Find(_ context.Context, identityID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	p, ok := s.byID[identityID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Profiles) GetByID(ctx context.Context, identityID string) (models.Profile, error) {
	p, err := s.Find(ctx, identityID)
	if err != nil {
		return models.Profile{}, err
	}
	if p == nil {
		return models.Profile{}, profilestore.ErrNotFound
	}
	return *p, nil
}

func (s *Profiles) UpdateSelf(_ context.Context, identityID string, u profilestore.SelfUpdate) (models.Profile, error) {
	return s.mutate(identityID, func(p *models.Profile) error {
		if u.FullName != nil {
			p.FullName = normalize.Name(*u.FullName)
			p.FullNameCI = text.Fold(p.FullName)
		}
		if u.Bio != nil {
			p.Bio = *u.Bio
		}
		if u.Notifications != nil {
			p.Notifications = u.Notifications
		}
		if u.Privacy != nil {
			p.Privacy = u.Privacy
		}
		return nil
	})
}

func (s *Profiles) SetRole(_ context.Context, identityID, role string) (models.Profile, error) {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return models.Profile{}, profilestore.ErrBadRole
	}
	return s.mutate(identityID, func(p *models.Profile) error { p.Role = role; return nil })
}

func (s *Profiles) SetStatus(_ context.Context, identityID, status string) (models.Profile, error) {
	status = normalize.Status(status)
	if status != models.StatusActive && status != models.StatusDisabled {
		return models.Profile{}, profilestore.ErrBadStatus
	}
	return s.mutate(identityID, func(p *models.Profile) error { p.Status = status; return nil })
}

func (s *Profiles) mutate(identityID string, fn func(*models.Profile) error) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Profile{}, s.FailWith
	}
	p, ok := s.byID[identityID]
	if !ok {
		return models.Profile{}, profilestore.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return models.Profile{}, err
	}
	p.UpdatedAt = time.Now().UTC()
	s.byID[identityID] = p
	return p, nil
}

func (s *Profiles) List(_ context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := make([]models.Profile, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullNameCI != out[j].FullNameCI {
			return out[i].FullNameCI < out[j].FullNameCI
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Profiles) CountByRole(ctx context.Context) (map[string]int64, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, p := range list {
		out[p.Role]++
	}
	return out, nil
}
