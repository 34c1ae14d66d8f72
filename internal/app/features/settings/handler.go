// internal/app/features/settings/handler.go
package settings

import (
	"context"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	profilestore "github.com/dalemusser/campushub/internal/app/store/profiles"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// ProfileStore is the slice of profilestore.Store settings needs.
type ProfileStore interface {
	Find(ctx context.Context, identityID string) (*models.Profile, error)
	UpdateSelf(ctx context.Context, identityID string, u profilestore.SelfUpdate) (models.Profile, error)
}

// Refresher re-resolves the sessions of one identity.
type Refresher interface {
	RefreshIdentity(identityID string) int
}

// Handler owns the participant's own-profile settings.
type Handler struct {
	Profiles ProfileStore
	Sessions Refresher
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a settings Handler. sessions may be nil.
func NewHandler(profiles ProfileStore, sessions Refresher, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		Sessions: sessions,
		Log:      logger,
		ErrLog:   errLog,
	}
}
