// internal/app/features/lostfound/claim.go
package lostfound

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"github.com/dalemusser/campushub/internal/app/system/livefeed"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Claim marks a found item as claimed by the viewer. The reporter cannot
// claim their own item and an item is claimed at most once.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	it, ok := h.Load(w, r)
	if !ok {
		return
	}

	switch {
	case it.Kind != models.KindFound:
		uierrors.Write(w, http.StatusConflict, "Only found items can be claimed.")
		return
	case it.Claimed:
		uierrors.Write(w, http.StatusConflict, "This item has already been claimed.")
		return
	case it.SubmitterID == v.IdentityID:
		uierrors.Forbidden(w, "You reported this item.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	updated, err := h.items.UpdateWhere(ctx, it.ID,
		bson.M{"kind": models.KindFound, "claimed": false},
		bson.M{"claimed": true, "claimed_by": v.IdentityID},
	)
	if errors.Is(err, recordstore.ErrNotFound) {
		// Either deleted or claimed by someone else since it was loaded.
		if _, gerr := h.items.Get(ctx, it.ID); errors.Is(gerr, recordstore.ErrNotFound) {
			uierrors.NotFound(w, "That item was not found.")
			return
		}
		uierrors.Write(w, http.StatusConflict, "This item has already been claimed.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "claim item failed", err, "Could not claim the item.")
		return
	}

	h.Log.Info("item claimed",
		zap.String("id", it.ID.Hex()),
		zap.String("claimed_by", v.IdentityID))
	h.Publish(livefeed.Updated, updated)
	uierrors.JSON(w, http.StatusOK, updated)
}
