// internal/app/features/login/handler.go
package login

import (
	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"go.uber.org/zap"
)

// Handler owns password sign-in and account creation.
type Handler struct {
	Accounts   *session.Accounts
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.AuthLimiter
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger

	GoogleEnabled bool
	// AllowAdminSignup is reported to the client so it can offer the
	// admin option on the signup form.
	AllowAdminSignup bool
}

// NewHandler constructs a login Handler. limiter and audit may be nil.
func NewHandler(
	accounts *session.Accounts,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.AuthLimiter,
	audit *auditlog.Logger,
	errLog *uierrors.ErrorLogger,
	googleEnabled bool,
	allowAdminSignup bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:         accounts,
		SessionMgr:       sessionMgr,
		Limiter:          limiter,
		AuditLog:         audit,
		Log:              logger,
		ErrLog:           errLog,
		GoogleEnabled:    googleEnabled,
		AllowAdminSignup: allowAdminSignup,
	}
}
