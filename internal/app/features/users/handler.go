// internal/app/features/users/handler.go
package users

import (
	"context"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileStore is the slice of profilestore.Store the console needs.
type ProfileStore interface {
	List(ctx context.Context) ([]models.Profile, error)
	GetByID(ctx context.Context, identityID string) (models.Profile, error)
	SetRole(ctx context.Context, identityID, role string) (models.Profile, error)
	SetStatus(ctx context.Context, identityID, status string) (models.Profile, error)
}

// Refresher re-resolves every live session of an identity.
// *session.Registry satisfies it.
type Refresher interface {
	RefreshIdentity(identityID string) int
}

// Handler owns the admin user-management endpoints.
type Handler struct {
	Profiles ProfileStore
	Sessions Refresher
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a users Handler. audit may be nil.
func NewHandler(profiles ProfileStore, sessions Refresher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
