package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/session"
)

type ctxKey string

const (
	sidCtxKey      ctxKey = "sid"
	resolverCtxKey ctxKey = "resolver"
	viewerCtxKey   ctxKey = "viewer"
)

// Viewer is the resolved caller of a gated request.
type Viewer struct {
	IdentityID string
	Email      string
	Name       string
	Role       string
	IsAdmin    bool
}

// NewViewer derives a Viewer from a resolved triple.
func NewViewer(t session.Triple, check gate.AdminCheck) Viewer {
	v := Viewer{}
	if t.Identity != nil {
		v.IdentityID = t.Identity.ID
		v.Email = t.Identity.Email
		v.Name = t.Identity.DisplayName
	}
	if t.Profile != nil {
		v.Role = t.Profile.Role
		if t.Profile.FullName != "" {
			v.Name = t.Profile.FullName
		}
	}
	v.IsAdmin = v.IdentityID != "" && check.IsAdmin(t.Profile, t.Identity)
	return v
}

// SID returns the session id set by LoadSession, or "".
func SID(r *http.Request) string {
	s, _ := r.Context().Value(sidCtxKey).(string)
	return s
}

// ResolverFrom returns the session's resolver set by LoadSession.
func ResolverFrom(r *http.Request) (*session.Resolver, bool) {
	res, ok := r.Context().Value(resolverCtxKey).(*session.Resolver)
	return res, ok && res != nil
}

// ViewerFrom returns the viewer set by RequireRealm.
func ViewerFrom(r *http.Request) (Viewer, bool) {
	v, ok := r.Context().Value(viewerCtxKey).(Viewer)
	return v, ok
}

func withViewer(r *http.Request, v Viewer) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), viewerCtxKey, v))
}

// WithTestViewer injects v as if RequireRealm had admitted the request.
// Handler tests use it to skip the session machinery.
func WithTestViewer(r *http.Request, v Viewer) *http.Request {
	return withViewer(r, v)
}

// WithTestSession injects a session id and resolver as LoadSession would.
func WithTestSession(r *http.Request, sid string, res *session.Resolver) *http.Request {
	ctx := context.WithValue(r.Context(), sidCtxKey, sid)
	if res != nil {
		ctx = context.WithValue(ctx, resolverCtxKey, res)
	}
	return r.WithContext(ctx)
}
