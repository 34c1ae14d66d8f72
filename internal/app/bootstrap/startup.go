// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	identitystore "github.com/dalemusser/campushub/internal/app/store/identities"
	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it
// applies timeouts, builds the shared services, seeds the administrator and
// starts the cleanup worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{Resolve: appCfg.ResolveTimeout})
	logger.Info("timeouts configured", zap.Duration("resolve", timeouts.Resolve()))

	svc = newServices(appCfg, deps, logger)

	if err := ensureSeedAdmin(ctx, svc.provider, svc.identities, svc.profiles,
		appCfg.SeedAdminEmail, appCfg.SeedAdminPassword, logger); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	svc.cleanup.Start()
	return nil
}

// emailLookup finds an identity by email. identitystore.Store satisfies it.
type emailLookup interface {
	GetByEmail(ctx context.Context, email string) (models.Identity, error)
}

// adminProfiles is the profile access seeding needs.
type adminProfiles interface {
	EnsureDefault(ctx context.Context, p models.Profile) (bool, error)
	SetRole(ctx context.Context, identityID, role string) (models.Profile, error)
}

// ensureSeedAdmin makes email an administrator. A missing identity is
// created with password; without a password it is left for a later Google
// sign-in and the next start.
func ensureSeedAdmin(ctx context.Context, provider *identity.Provider, identities emailLookup, profiles adminProfiles, email, password string, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		return nil
	}

	id, err := identities.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, identitystore.ErrNotFound):
		if password == "" {
			logger.Warn("seed admin has no identity and no password; skipping", zap.String("email", email))
			return nil
		}
		created, err := provider.CreateAccount(ctx, identity.NewAccount{
			Email:       email,
			Password:    password,
			DisplayName: "Administrator",
		})
		if err != nil {
			return err
		}
		id = *created
		logger.Info("seed admin identity created", zap.String("identity_id", id.ID))
	default:
		return err
	}

	name := id.DisplayName
	if name == "" {
		name = "Administrator"
	}
	created, err := profiles.EnsureDefault(ctx, models.Profile{
		ID:       id.ID,
		FullName: name,
		Email:    id.Email,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if !created {
		if _, err := profiles.SetRole(ctx, id.ID, models.RoleAdmin); err != nil {
			return err
		}
	}
	logger.Info("seed admin ensured", zap.String("identity_id", id.ID), zap.String("email", id.Email))
	return nil
}
