package livefeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HeartbeatInterval is how often an idle stream sends a comment line.
var HeartbeatInterval = 25 * time.Second

// StartSSE writes the event-stream headers and flushes them. It returns
// false if the writer cannot stream.
func StartSSE(w http.ResponseWriter) bool {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return true
}

// WriteEvent writes one named SSE frame with a JSON payload.
func WriteEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// WriteComment writes an SSE comment line, used as a keep-alive.
func WriteComment(w http.ResponseWriter, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Stream copies sub to w as SSE until the request ends or the
// subscription closes. A degraded close is reported to the client as an
// "event: degraded" frame. The subscription is closed on return.
func Stream(w http.ResponseWriter, r *http.Request, sub *Subscription) {
	defer sub.Close()
	if !StartSSE(w) {
		return
	}

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if WriteComment(w, "keep-alive") != nil {
				return
			}
		case ev, ok := <-sub.C():
			if !ok {
				if sub.Degraded() {
					_ = WriteEvent(w, "degraded", map[string]string{
						"topic":  sub.topic,
						"reason": "subscriber fell behind; reload the list",
					})
				}
				return
			}
			if WriteEvent(w, ev.Kind, ev) != nil {
				return
			}
		}
	}
}
