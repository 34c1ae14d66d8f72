// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/dalemusser/campushub/internal/app/features/activities"
	"github.com/dalemusser/campushub/internal/app/features/complaints"
	"github.com/dalemusser/campushub/internal/app/features/lostfound"
	"github.com/dalemusser/campushub/internal/app/features/notifications"
	"github.com/dalemusser/campushub/internal/app/features/volunteers"
	"github.com/dalemusser/campushub/internal/app/store/audit"
	identitystore "github.com/dalemusser/campushub/internal/app/store/identities"
	"github.com/dalemusser/campushub/internal/app/store/oauthstate"
	profilestore "github.com/dalemusser/campushub/internal/app/store/profiles"
	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/livefeed"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/app/system/workers"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// services are the long-lived objects shared by Startup, BuildHandler and
// Shutdown. WAFFLE passes DBDeps by value, so they live here.
type services struct {
	identities *identitystore.Store
	profiles   *profilestore.Store
	states     *oauthstate.Store

	complaints    *recordstore.Store[models.Complaint, *models.Complaint]
	lostFound     *recordstore.Store[models.LostItem, *models.LostItem]
	volunteers    *recordstore.Store[models.Volunteer, *models.Volunteer]
	activities    *recordstore.Store[models.Activity, *models.Activity]
	notifications *recordstore.Store[models.Notification, *models.Notification]

	provider *identity.Provider
	registry *session.Registry
	accounts *session.Accounts
	audit    *auditlog.Logger
	feed     *livefeed.Hub
	limiter  *ratelimit.AuthLimiter
	cleanup  *workers.SessionCleanup
}

var svc *services

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *services {
	db := deps.CampusHubMongoDatabase
	s := &services{
		identities: identitystore.New(db),
		profiles:   profilestore.New(db),
		states:     oauthstate.New(db),

		complaints:    recordstore.New[models.Complaint, *models.Complaint](db, complaints.Collection),
		lostFound:     recordstore.New[models.LostItem, *models.LostItem](db, lostfound.Collection),
		volunteers:    recordstore.New[models.Volunteer, *models.Volunteer](db, volunteers.Collection),
		activities:    recordstore.New[models.Activity, *models.Activity](db, activities.Collection),
		notifications: recordstore.New[models.Notification, *models.Notification](db, notifications.Collection),

		feed:    livefeed.NewHub(logger),
		limiter: ratelimit.NewAuthLimiter(),
	}
	s.provider = identity.NewProvider(s.identities, logger)
	s.registry = session.NewRegistry(s.profiles, s.provider, appCfg.ProfileFetchTimeout, logger)
	s.accounts = session.NewAccounts(s.provider, s.profiles, s.registry, appCfg.AllowAdminSignup, logger)
	s.audit = auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	s.cleanup = workers.NewSessionCleanup(s.registry, s.states, logger, appCfg.CleanupInterval, appCfg.SessionIdleTimeout)
	return s
}
