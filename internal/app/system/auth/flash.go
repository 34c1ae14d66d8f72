package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Flash is a one-shot message shown after the next page load.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	FlashError   = "error"
	FlashSuccess = "success"
)

// AddFlash queues a message in the session cookie.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	sess := sm.getSession(r)
	sess.AddFlash(kind + ":" + msg)
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("flash save failed", zap.Error(err))
	}
}

// Flashes drains queued messages.
func (sm *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := sm.getSession(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return []Flash{}
	}
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("flash save failed", zap.Error(err))
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, parseFlash(s))
	}
	return out
}

func parseFlash(s string) Flash {
	kind, msg, ok := strings.Cut(s, ":")
	if !ok {
		return Flash{Kind: FlashSuccess, Message: s}
	}
	return Flash{Kind: kind, Message: msg}
}
