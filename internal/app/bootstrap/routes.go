// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	activitiesfeature "github.com/dalemusser/campushub/internal/app/features/activities"
	authgooglefeature "github.com/dalemusser/campushub/internal/app/features/authgoogle"
	"github.com/dalemusser/campushub/internal/app/features/collection"
	complaintsfeature "github.com/dalemusser/campushub/internal/app/features/complaints"
	dashboardfeature "github.com/dalemusser/campushub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/campushub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/campushub/internal/app/features/health"
	homefeature "github.com/dalemusser/campushub/internal/app/features/home"
	loginfeature "github.com/dalemusser/campushub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/campushub/internal/app/features/logout"
	lostfoundfeature "github.com/dalemusser/campushub/internal/app/features/lostfound"
	notificationsfeature "github.com/dalemusser/campushub/internal/app/features/notifications"
	sessionapifeature "github.com/dalemusser/campushub/internal/app/features/sessionapi"
	settingsfeature "github.com/dalemusser/campushub/internal/app/features/settings"
	usersfeature "github.com/dalemusser/campushub/internal/app/features/users"
	volunteersfeature "github.com/dalemusser/campushub/internal/app/features/volunteers"
	metricsstore "github.com/dalemusser/campushub/internal/app/store/metrics"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// Every request passes through LoadSession, which ties it to its session's
// resolver. /dashboard and /admin are the two realms; each subrouter is
// guarded by RequireRealm, so nothing in a realm is served until the
// session has resolved and the gate admits it.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		svc = newServices(appCfg, deps, logger)
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.UseRegistry(svc.registry, gate.AdminCheck{EmailHeuristic: appCfg.AdminEmailHeuristic})

	errLog := errorsfeature.NewErrorLogger(logger)
	recordDeps := collection.Deps{
		Feed:   svc.feed,
		Flash:  sessionMgr,
		Audit:  svc.audit,
		ErrLog: errLog,
		Log:    logger,
	}

	// Feature handlers
	activities := activitiesfeature.NewHandler(svc.activities, recordDeps)
	complaints := complaintsfeature.NewHandler(svc.complaints, recordDeps)
	lostFound := lostfoundfeature.NewHandler(svc.lostFound, recordDeps)
	volunteers := volunteersfeature.NewHandler(svc.volunteers, recordDeps)
	notifications := notificationsfeature.NewHandler(svc.notifications, recordDeps)
	users := usersfeature.NewHandler(svc.profiles, svc.registry, svc.audit, errLog, logger)
	settings := settingsfeature.NewHandler(svc.profiles, svc.registry, errLog, logger)
	dashboard := dashboardfeature.NewHandler(metricsstore.Sources{
		Profiles:      svc.profiles,
		Complaints:    svc.complaints,
		LostFound:     svc.lostFound,
		Volunteers:    svc.volunteers,
		Activities:    svc.activities,
		Notifications: svc.notifications,
	}, svc.notifications, errLog, logger)

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadSession)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.CampusHubMongoClient, svc.registry, logger)))

	// Public pages and authentication
	homefeature.NewHandler(sessionMgr, appCfg.SiteName, appCfg.GoogleEnabled(), logger).MountRoutes(r)
	loginfeature.NewHandler(svc.accounts, sessionMgr, svc.limiter, svc.audit, errLog,
		appCfg.GoogleEnabled(), appCfg.AllowAdminSignup, logger).MountRoutes(r)
	logoutfeature.NewHandler(svc.accounts, sessionMgr, svc.audit, logger).MountRoutes(r)

	googleHandler := authgooglefeature.NewHandler(svc.accounts, sessionMgr, svc.states, svc.audit,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Session state for the browser
	r.Mount("/session", sessionapifeature.Routes(sessionapifeature.NewHandler(sessionMgr, logger)))

	// Participant realm
	r.Route("/dashboard", func(pr chi.Router) {
		pr.Use(sessionMgr.RequireRealm(gate.Participant))
		dashboard.MountRoutes(pr)
		pr.Route("/activities", activities.MountRoutes)
		pr.Route("/lost-found", lostFound.MountRoutes)
		pr.Route("/complaints", complaints.MountRoutes)
		pr.Route("/volunteer", volunteers.MountRoutes)
		pr.Route("/notifications", notifications.MountRoutes)
		pr.Route("/settings", settings.MountRoutes)
	})

	// Admin realm
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(sessionMgr.RequireRealm(gate.Admin))
		dashboard.MountAdminRoutes(ar)
		ar.Route("/users", users.MountRoutes)
		ar.Route("/events", activities.MountConsoleRoutes)
		ar.Route("/activities", activities.MountConsoleRoutes)
		ar.Route("/complaints", complaints.MountConsoleRoutes)
		ar.Route("/lost-found", lostFound.MountConsoleRoutes)
		ar.Route("/volunteers", volunteers.MountConsoleRoutes)
		ar.Route("/notifications", notifications.MountConsoleRoutes)
	})

	return r, nil
}
