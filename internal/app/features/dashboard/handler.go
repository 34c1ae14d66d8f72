// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"time"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/campushub/internal/app/store/metrics"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const dashboardTimeout = 5 * time.Second

// NotificationLister lists notifications. recordstore.Store satisfies it.
type NotificationLister interface {
	List(ctx context.Context, filter bson.M) ([]models.Notification, error)
}

// Handler serves the participant and admin landing pages.
type Handler struct {
	Sources       metricsstore.Sources
	Notifications NotificationLister
	ErrLog        *uierrors.ErrorLogger
	Log           *zap.Logger
}

func NewHandler(src metricsstore.Sources, notes NotificationLister, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Sources:       src,
		Notifications: notes,
		ErrLog:        errLog,
		Log:           logger,
	}
}

// section is one entry in a realm's navigation.
type section struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

var participantSections = []section{
	{"Activities", "/dashboard/activities"},
	{"Lost & Found", "/dashboard/lost-found"},
	{"Complaints", "/dashboard/complaints"},
	{"Volunteer", "/dashboard/volunteer"},
	{"Notifications", "/dashboard/notifications"},
	{"Settings", "/dashboard/settings"},
}

var adminSections = []section{
	{"Users", "/admin/users"},
	{"Events", "/admin/events"},
	{"Complaints", "/admin/complaints"},
	{"Lost & Found", "/admin/lost-found"},
	{"Volunteers", "/admin/volunteers"},
	{"Notifications", "/admin/notifications"},
}
