// Package identity is the portal's identity provider: password sign-in,
// account creation and federated (Google) sign-in over the identities
// collection.
package identity

import (
	"context"
	"errors"
	"fmt"

	identitystore "github.com/dalemusser/campushub/internal/app/store/identities"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password CreateAccount accepts.
const MinPasswordLength = 6

// Errors surfaced verbatim to the caller.
var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	ErrInvalidEmail   = errors.New("a valid email address is required")
	ErrWeakPassword   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrNotFound       = errors.New("identity not found")
)

// Store is the persistence the provider needs.
type Store interface {
	Create(ctx context.Context, id models.Identity) (models.Identity, error)
	GetByID(ctx context.Context, id string) (models.Identity, error)
	GetByEmail(ctx context.Context, email string) (models.Identity, error)
	GetByGoogleSub(ctx context.Context, sub string) (models.Identity, error)
	SetGoogleSub(ctx context.Context, id, sub string) error
}

// NewAccount is the input to CreateAccount.
type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// FederatedUser is what a federated provider tells us about a user.
type FederatedUser struct {
	Subject string
	Email   string
	Name    string
}

// Provider implements sign-in and account creation.
type Provider struct {
	store Store
	log   *zap.Logger
	cost  int
}

// NewProvider returns a Provider backed by store.
func NewProvider(store Store, logger *zap.Logger) *Provider {
	return &Provider{store: store, log: logger, cost: bcrypt.DefaultCost}
}

// WithHashCost returns a copy using cost for new password hashes. Tests
// use bcrypt.MinCost.
func (p *Provider) WithHashCost(cost int) *Provider {
	cp := *p
	cp.cost = cost
	return &cp
}

// SignIn checks email and password. Every failure that depends on the
// account's existence returns ErrBadCredentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	id, err := p.store.GetByEmail(ctx, normalize.Email(email))
	if errors.Is(err, identitystore.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up identity: %w", err)
	}
	if id.PasswordHash == "" {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &id, nil
}

// CreateAccount registers a new password identity.
func (p *Provider) CreateAccount(ctx context.Context, in NewAccount) (*models.Identity, error) {
	email := normalize.Email(in.Email)
	if !inputval.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := p.store.Create(ctx, models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
	})
	if errors.Is(err, identitystore.ErrDuplicate) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	p.log.Info("identity created", zap.String("identity_id", created.ID))
	return &created, nil
}

// Federated resolves a federated user to an identity. An identity already
// linked to the subject wins; otherwise an identity with the same email is
// linked; otherwise a new password-less identity is created. The bool
// reports whether a new identity was created.
func (p *Provider) Federated(ctx context.Context, fu FederatedUser) (*models.Identity, bool, error) {
	if fu.Subject == "" {
		return nil, false, errors.New("federated user has no subject")
	}
	id, err := p.store.GetByGoogleSub(ctx, fu.Subject)
	if err == nil {
		return &id, false, nil
	}
	if !errors.Is(err, identitystore.ErrNotFound) {
		return nil, false, fmt.Errorf("look up federated identity: %w", err)
	}

	email := normalize.Email(fu.Email)
	if !inputval.IsValidEmail(email) {
		return nil, false, ErrInvalidEmail
	}

	id, err = p.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := p.store.SetGoogleSub(ctx, id.ID, fu.Subject); err != nil {
			return nil, false, fmt.Errorf("link federated subject: %w", err)
		}
		id.GoogleSub = fu.Subject
		p.log.Info("federated subject linked", zap.String("identity_id", id.ID))
		return &id, false, nil
	case !errors.Is(err, identitystore.ErrNotFound):
		return nil, false, fmt.Errorf("look up identity: %w", err)
	}

	created, err := p.store.Create(ctx, models.Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: fu.Name,
		GoogleSub:   fu.Subject,
	})
	if errors.Is(err, identitystore.ErrDuplicate) {
		// Lost a race with a concurrent first login for the same account.
		id, err := p.store.GetByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("reload identity: %w", err)
		}
		return &id, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create federated identity: %w", err)
	}
	p.log.Info("identity created", zap.String("identity_id", created.ID), zap.String("via", "google"))
	return &created, true, nil
}

// Get loads an identity by id.
func (p *Provider) Get(ctx context.Context, id string) (*models.Identity, error) {
	got, err := p.store.GetByID(ctx, id)
	if errors.Is(err, identitystore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &got, nil
}
