// internal/app/features/notifications/inbox.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// inboxItem is a notification as seen by one reader.
type inboxItem struct {
	models.Notification
	Read bool `json:"read"`
}

type inboxPage struct {
	paging.Page[inboxItem]
	Unread int `json:"unread"`
}

// Inbox lists the viewer's notifications and broadcasts, newest first,
// with a read flag. Besides the usual list parameters it accepts
// unread=1.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.notes.List(ctx, bson.M{"recipient_id": bson.M{"$in": []string{v.IdentityID, ""}}})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list notifications failed", err, "Could not load notifications.")
		return
	}

	q := listview.ParseQuery(r, h.Schema.Enums...)
	onlyUnread := r.URL.Query().Get("unread") == "1"
	items := make([]inboxItem, 0, len(rows))
	unread := 0
	for _, n := range listview.Filter(rows, q, h.Schema.Fields) {
		read := n.IsReadBy(v.IdentityID)
		if !read {
			unread++
		}
		if onlyUnread && read {
			continue
		}
		items = append(items, inboxItem{Notification: n, Read: read})
	}
	uierrors.JSON(w, http.StatusOK, inboxPage{
		Page:   paging.Window(items, q.Start, q.Limit),
		Unread: unread,
	})
}

// MarkRead records that the viewer has read a notification.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	n, ok := h.Load(w, r)
	if !ok {
		return
	}
	if !n.IsFor(v.IdentityID) {
		uierrors.NotFound(w, "That notification was not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	updated, err := h.notes.AddToSet(ctx, n.ID, "read_by", v.IdentityID)
	if errors.Is(err, recordstore.ErrNotFound) {
		uierrors.NotFound(w, "That notification was not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark notification read failed", err, "Could not update the notification.")
		return
	}
	uierrors.JSON(w, http.StatusOK, inboxItem{Notification: updated, Read: true})
}
