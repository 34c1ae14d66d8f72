package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	sidKey        = "sid"
	identityIDKey = "identity_id"
)

// SessionManager owns the session cookie and links each request to the
// resolver for its session id.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	registry *session.Registry
	check    gate.AdminCheck
	log      *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure with SameSite=None; in local development over plain
// http use secure=false so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "campushub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// UseRegistry links the manager to the resolver registry and the admin
// check used by RequireRealm.
func (sm *SessionManager) UseRegistry(reg *session.Registry, check gate.AdminCheck) *SessionManager {
	sm.registry = reg
	sm.check = check
	return sm
}

// AdminCheck returns the configured admin check.
func (sm *SessionManager) AdminCheck() gate.AdminCheck { return sm.check }

// Registry returns the resolver registry.
func (sm *SessionManager) Registry() *session.Registry { return sm.registry }

// getSession loads the cookie session. A cookie that fails to decode
// (rotated key, tampering, expiry) yields a fresh session rather than an
// error.
func (sm *SessionManager) getSession(r *http.Request) *sessions.Session {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var cookieErr securecookie.Error
		if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
			sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
		} else {
			sm.log.Warn("session load failed", zap.Error(err))
		}
		sess, _ = sm.store.New(r, sm.name)
	}
	return sess
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| LoadSession                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSession gives every request a session id (minting and saving one on
// first visit), ensures the session's resolver mirrors the cookie's
// identity, and stores both in the request context.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sm.getSession(r)
		sid := getString(sess, sidKey)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sidKey] = sid
			if err := sess.Save(r, w); err != nil {
				sm.log.Error("session save failed", zap.Error(err))
			}
		}

		ctx := context.WithValue(r.Context(), sidCtxKey, sid)
		if sm.registry != nil {
			res := sm.registry.Ensure(r.Context(), sid, getString(sess, identityIDKey))
			ctx = context.WithValue(ctx, resolverCtxKey, res)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignIn records identityID in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, identityID string) error {
	sess := sm.getSession(r)
	if getString(sess, sidKey) == "" {
		sess.Values[sidKey] = SID(r)
	}
	sess.Values[identityIDKey] = identityID
	return sess.Save(r, w)
}

// SignOut removes the identity from the session cookie. The session id is
// kept so open event streams for it observe the sign-out.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess := sm.getSession(r)
	delete(sess.Values, identityIDKey)
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func wantsHTML(r *http.Request) bool {
	if isHTMX(r) {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
