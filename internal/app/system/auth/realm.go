package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ErrNoSession is returned by Resolve when LoadSession did not run.
var ErrNoSession = errors.New("auth: no session on request")

// Resolve waits for the request's session to resolve, bounded by
// timeouts.Resolve. A generation superseded while waiting is followed to
// the newer one.
func Resolve(r *http.Request) (session.Triple, error) {
	res, ok := ResolverFrom(r)
	if !ok {
		return session.Triple{}, ErrNoSession
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Resolve())
	defer cancel()
	for {
		t, err := res.WaitUntilResolved(ctx)
		if errors.Is(err, session.ErrSuperseded) {
			continue
		}
		return t, err
	}
}

// RequireRealm admits a request only when the gate allows the session into
// realm. While the session is unresolved nothing is rendered; if it does
// not resolve in time the caller gets 503.
//
// Denied requests are answered by caller type:
//   - HTML: 303 to /login?return=...
//   - HTMX: HX-Redirect to the same target, 401 when signed out, 403 otherwise
//   - API: 401 or 403 JSON
func (sm *SessionManager) RequireRealm(realm gate.Realm) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := ViewerFrom(r); ok && (realm != gate.Admin || v.IsAdmin) {
				next.ServeHTTP(w, r)
				return
			}

			t, err := Resolve(r)
			if err != nil {
				sm.log.Warn("session not resolved in time",
					zap.String("realm", string(realm)),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, "Session is still loading. Try again.")
				return
			}

			decision, target := gate.Evaluate(realm, t, sm.check)
			switch decision {
			case gate.Allow:
				next.ServeHTTP(w, withViewer(r, NewViewer(t, sm.check)))
			case gate.Redirect:
				status := http.StatusForbidden
				if !t.SignedIn() {
					status = http.StatusUnauthorized
				}
				sm.deny(w, r, target, status)
			default:
				writeJSON(w, http.StatusServiceUnavailable, "Session is still loading. Try again.")
			}
		})
	}
}

func (sm *SessionManager) deny(w http.ResponseWriter, r *http.Request, target string, status int) {
	dest := target + "?return=" + url.QueryEscape(currentURI(r))
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(status)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	msg := "unauthorized"
	if status == http.StatusForbidden {
		msg = "forbidden"
	}
	writeJSON(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
