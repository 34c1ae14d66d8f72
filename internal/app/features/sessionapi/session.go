// internal/app/features/sessionapi/session.go
package sessionapi

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/livefeed"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /session                                                                 |
| Current triple. ?wait=1 blocks until the current generation resolves.        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.ResolverFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusServiceUnavailable, "Session is not available.")
		return
	}
	t := res.Current()
	if query.Get(r, "wait") == "1" && !t.Resolved {
		resolved, err := auth.Resolve(r)
		if err != nil {
			h.Log.Warn("session wait timed out", zap.Error(err))
		} else {
			t = resolved
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	uierrors.JSON(w, http.StatusOK, h.view(t))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /session/events                                                          |
| SSE: one "session" frame per triple change, starting with the current one.   |
| A client holding a realm page leaves as soon as its decision turns to        |
| redirect.                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	res, ok := auth.ResolverFrom(r)
	if !ok {
		uierrors.Write(w, http.StatusServiceUnavailable, "Session is not available.")
		return
	}
	updates, unsubscribe := res.Subscribe()
	defer unsubscribe()

	if !livefeed.StartSSE(w) {
		return
	}
	ticker := time.NewTicker(livefeed.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if livefeed.WriteComment(w, "keep-alive") != nil {
				return
			}
		case t, ok := <-updates:
			if !ok {
				return
			}
			if livefeed.WriteEvent(w, "session", h.view(t)) != nil {
				return
			}
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /session/flashes                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeFlashes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	uierrors.JSON(w, http.StatusOK, map[string]any{"flashes": h.SessionMgr.Flashes(w, r)})
}
