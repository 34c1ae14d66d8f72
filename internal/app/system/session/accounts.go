package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrAdminSignupDisabled is returned when signup asks for the admin
	// role and admin self-signup is not enabled.
	ErrAdminSignupDisabled = errors.New("signing up as an administrator is not enabled")
	// ErrSignupRole is returned for any signup role other than participant
	// or admin.
	ErrSignupRole = errors.New(`signup role must be "participant" or "admin"`)
)

// IdentityProvider is the subset of identity.Provider that Accounts uses.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	CreateAccount(ctx context.Context, in identity.NewAccount) (*models.Identity, error)
	Federated(ctx context.Context, fu identity.FederatedUser) (*models.Identity, bool, error)
}

// ProfileWriter creates profiles.
type ProfileWriter interface {
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
	EnsureDefault(ctx context.Context, p models.Profile) (bool, error)
}

// SignupFields is the signup form.
type SignupFields struct {
	FullName string `json:"full_name" validate:"required,notblank,max=120" label:"Full name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	Role     string `json:"role,omitempty"`
}

// Accounts ties identity-provider calls to a session's resolver. Each
// operation performs single-document writes only.
type Accounts struct {
	identities IdentityProvider
	profiles   ProfileWriter
	registry   *Registry
	log        *zap.Logger

	allowAdminSignup bool
}

// NewAccounts wires the account flows. allowAdminSignup controls whether
// signup may request the admin role.
func NewAccounts(identities IdentityProvider, profiles ProfileWriter, registry *Registry, allowAdminSignup bool, logger *zap.Logger) *Accounts {
	return &Accounts{
		identities:       identities,
		profiles:         profiles,
		registry:         registry,
		log:              logger,
		allowAdminSignup: allowAdminSignup,
	}
}

// Login signs sid in. Identity-provider errors are returned unmodified.
func (a *Accounts) Login(ctx context.Context, sid, email, password string) (*models.Identity, error) {
	id, err := a.identities.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.registry.SetIdentity(sid, id)
	return id, nil
}

// Signup creates an identity and its profile, then signs sid in. The
// profile role is participant unless admin is requested and allowed.
func (a *Accounts) Signup(ctx context.Context, sid string, f SignupFields) (*models.Identity, error) {
	role := normalize.Role(f.Role)
	switch role {
	case "", models.RoleParticipant:
		role = models.RoleParticipant
	case models.RoleAdmin:
		if !a.allowAdminSignup {
			return nil, ErrAdminSignupDisabled
		}
	default:
		return nil, ErrSignupRole
	}

	id, err := a.identities.CreateAccount(ctx, identity.NewAccount{
		Email:       f.Email,
		Password:    f.Password,
		DisplayName: f.FullName,
	})
	if err != nil {
		return nil, err
	}

	if _, err := a.profiles.Create(ctx, models.Profile{
		ID:       id.ID,
		FullName: f.FullName,
		Email:    id.Email,
		Role:     role,
	}); err != nil {
		a.log.Error("profile create after signup failed",
			zap.String("identity_id", id.ID), zap.Error(err))
		return nil, fmt.Errorf("create profile: %w", err)
	}

	a.registry.SetIdentity(sid, id)
	return id, nil
}

// FederatedLogin resolves a federated user, creates a default participant
// profile when none exists, and signs sid in.
func (a *Accounts) FederatedLogin(ctx context.Context, sid string, fu identity.FederatedUser) (*models.Identity, error) {
	id, _, err := a.identities.Federated(ctx, fu)
	if err != nil {
		return nil, err
	}
	name := fu.Name
	if name == "" {
		name = id.DisplayName
	}
	created, err := a.profiles.EnsureDefault(ctx, models.Profile{
		ID:       id.ID,
		FullName: name,
		Email:    id.Email,
		Role:     models.RoleParticipant,
	})
	if err != nil {
		// An absent profile is a valid state; the session resolves without one.
		a.log.Warn("default profile create failed", zap.String("identity_id", id.ID), zap.Error(err))
	} else if created {
		a.log.Info("default profile created", zap.String("identity_id", id.ID))
	}
	a.registry.SetIdentity(sid, id)
	return id, nil
}

// Logout starts a signed-out generation for sid. The resolver stays
// registered so open event streams observe the change.
func (a *Accounts) Logout(sid string) {
	a.registry.SetIdentity(sid, nil)
}
