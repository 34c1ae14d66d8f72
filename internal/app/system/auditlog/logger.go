// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/store/audit"
	"github.com/dalemusser/campushub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations for a category of audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, signup and sign-out events.
	Auth string
	// Admin controls logging for role, status and record moderation events.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
// A nil *Logger is a no-op so handlers and tests may omit it.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case only the
// zap destination is available.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.IdentityID != "" {
		fields = append(fields, zap.String("identity_id", event.IdentityID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event to the destinations configured for its
// category. Unknown categories go everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(ctx context.Context, r *http.Request, eventType, identityID string, err error, details map[string]string) {
	ev := audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  eventType,
		IdentityID: identityID,
		IP:         ratelimit.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    err == nil,
		Details:    details,
	}
	if err != nil {
		ev.FailureReason = err.Error()
	}
	l.Log(ctx, ev)
}

// --- Authentication Events ---

// LoginSuccess logs a successful password sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, identityID, email string) {
	l.auth(ctx, r, audit.EventLoginSuccess, identityID, nil, map[string]string{"email": email})
}

// LoginFailed logs a rejected sign-in attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, attemptedEmail string, err error) {
	l.auth(ctx, r, audit.EventLoginFailed, "", err, map[string]string{"attempted_email": attemptedEmail})
}

// Signup logs a created account.
func (l *Logger) Signup(ctx context.Context, r *http.Request, identityID, email, role string) {
	l.auth(ctx, r, audit.EventSignup, identityID, nil, map[string]string{"email": email, "role": role})
}

// SignupFailed logs a rejected signup.
func (l *Logger) SignupFailed(ctx context.Context, r *http.Request, attemptedEmail string, err error) {
	l.auth(ctx, r, audit.EventSignupFailed, "", err, map[string]string{"attempted_email": attemptedEmail})
}

// FederatedLogin logs a Google sign-in.
func (l *Logger) FederatedLogin(ctx context.Context, r *http.Request, identityID, email string) {
	l.auth(ctx, r, audit.EventFederatedLogin, identityID, nil, map[string]string{"email": email, "provider": "google"})
}

// FederatedLoginFailed logs a failed Google sign-in.
func (l *Logger) FederatedLoginFailed(ctx context.Context, r *http.Request, err error) {
	l.auth(ctx, r, audit.EventFederatedLoginFail, "", err, map[string]string{"provider": "google"})
}

// Logout logs a sign-out. identityID may be empty for an anonymous session.
func (l *Logger) Logout(ctx context.Context, r *http.Request, identityID string) {
	l.auth(ctx, r, audit.EventLogout, identityID, nil, nil)
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType, actorID, targetID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		IdentityID: targetID,
		ActorID:    actorID,
		IP:         ratelimit.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details:    details,
	})
}

// RoleChanged logs an admin changing a profile's role.
func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actorID, targetID, from, to string) {
	l.admin(ctx, r, audit.EventRoleChanged, actorID, targetID, map[string]string{"from": from, "to": to})
}

// StatusChanged logs an admin enabling or disabling a profile.
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID, targetID, from, to string) {
	l.admin(ctx, r, audit.EventStatusChanged, actorID, targetID, map[string]string{"from": from, "to": to})
}

// RecordUpdated logs an admin editing someone else's record.
func (l *Logger) RecordUpdated(ctx context.Context, r *http.Request, actorID, submitterID, collection, recordID string) {
	l.admin(ctx, r, audit.EventRecordUpdated, actorID, submitterID, map[string]string{"collection": collection, "record_id": recordID})
}

// RecordDeleted logs an admin deleting someone else's record.
func (l *Logger) RecordDeleted(ctx context.Context, r *http.Request, actorID, submitterID, collection, recordID string) {
	l.admin(ctx, r, audit.EventRecordDeleted, actorID, submitterID, map[string]string{"collection": collection, "record_id": recordID})
}

// NotificationSent logs an admin publishing a notification.
func (l *Logger) NotificationSent(ctx context.Context, r *http.Request, actorID, recipientID, title string) {
	if recipientID == "" {
		recipientID = "broadcast"
	}
	l.admin(ctx, r, audit.EventNotifySent, actorID, "", map[string]string{"recipient": recipientID, "title": title})
}
