// internal/app/features/collection/handler.go
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"github.com/dalemusser/campushub/internal/app/system/auditlog"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/limits"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/livefeed"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves one record collection. A participant handler scopes reads
// by the schema's ownership rules; the console handler returned by Console
// reads everything and edits ConsoleFields.
type Handler[T any, P recordstore.Doc[T]] struct {
	Schema Schema[T]
	Store  Store[T]
	Feed   *livefeed.Hub
	Flash  Flasher
	Audit  *auditlog.Logger
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	console bool
}

// Deps are the collaborators every collection handler shares. Feed, Flash
// and Audit may be nil.
type Deps struct {
	Feed   *livefeed.Hub
	Flash  Flasher
	Audit  *auditlog.Logger
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a participant-realm Handler.
func NewHandler[T any, P recordstore.Doc[T]](schema Schema[T], store Store[T], deps Deps) *Handler[T, P] {
	return &Handler[T, P]{
		Schema: schema,
		Store:  store,
		Feed:   deps.Feed,
		Flash:  deps.Flash,
		Audit:  deps.Audit,
		Log:    deps.Log,
		ErrLog: deps.ErrLog,
	}
}

// Console returns a copy of h for the admin realm.
func (h *Handler[T, P]) Console() *Handler[T, P] {
	c := *h
	c.console = true
	return &c
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reads                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// List returns the filtered, paged records visible to the viewer, newest
// first. Query parameters: q, from, to, start, limit and Schema.Enums.
func (h *Handler[T, P]) List(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Store.List(ctx, h.scope(v))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list "+h.Schema.Noun+"s failed", err, "Could not load "+h.Schema.Noun+"s.")
		return
	}
	q := listview.ParseQuery(r, h.Schema.Enums...)
	uierrors.JSON(w, http.StatusOK, listview.Apply(rows, q, h.Schema.Fields))
}

// Get returns one record.
func (h *Handler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	row, ok := h.Load(w, r)
	if !ok {
		return
	}
	if !h.canRead(v, row) {
		uierrors.NotFound(w, h.notFound())
		return
	}
	uierrors.JSON(w, http.StatusOK, row)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Writes                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Create decodes, validates and stores a new record submitted by the
// viewer. A failed write stores nothing and leaves an error flash.
func (h *Handler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}

	var row T
	if err := decodeBody(w, r, &row); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	*P(&row).Base() = models.Meta{SubmitterID: v.IdentityID}
	if h.Schema.Prepare != nil {
		h.Schema.Prepare(&row, v)
	}
	if res := inputval.Validate(row); res.HasErrors() {
		uierrors.Validation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	created, err := h.Store.Create(ctx, row)
	if err != nil {
		h.flash(w, r, auth.FlashError, "Could not save your "+h.Schema.Noun+". Please try again.")
		h.ErrLog.LogServerError(w, r, "create "+h.Schema.Noun+" failed", err, "Could not save your "+h.Schema.Noun+".")
		return
	}

	h.Log.Info(h.Schema.Noun+" created",
		zap.String("id", P(&created).Base().ID.Hex()),
		zap.String("submitter_id", v.IdentityID))
	if h.Schema.AfterCreate != nil {
		h.Schema.AfterCreate(r, v, created)
	}
	h.Publish(livefeed.Created, created)
	uierrors.JSON(w, http.StatusCreated, created)
}

// Update merges the JSON body into the stored record and writes the fields
// the caller may change. Only the submitter or an admin may update.
func (h *Handler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	row, ok := h.Load(w, r)
	if !ok {
		return
	}
	meta := *P(&row).Base()
	owner := meta.SubmitterID == v.IdentityID
	if !h.canMutate(v, owner) {
		uierrors.Forbidden(w, "You can only change your own "+h.Schema.Noun+"s.")
		return
	}

	fields := h.Schema.OwnerFields
	if h.console {
		fields = h.Schema.ConsoleFields
	}
	if len(fields) == 0 {
		uierrors.Write(w, http.StatusMethodNotAllowed, "This "+h.Schema.Noun+" cannot be edited.")
		return
	}

	merged := row
	if err := decodeBody(w, r, &merged); err != nil {
		uierrors.BadRequest(w, "Invalid request body.")
		return
	}
	if h.Schema.Normalize != nil {
		h.Schema.Normalize(&merged)
	}
	if res := inputval.Validate(merged); res.HasErrors() {
		uierrors.Validation(w, res)
		return
	}
	set, err := pick(merged, fields)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "encode "+h.Schema.Noun+" update failed", err, "Could not save changes.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	updated, err := h.Store.Update(ctx, meta.ID, set)
	if errors.Is(err, recordstore.ErrNotFound) {
		uierrors.NotFound(w, h.notFound())
		return
	}
	if err != nil {
		h.flash(w, r, auth.FlashError, "Could not save your changes. Please try again.")
		h.ErrLog.LogServerError(w, r, "update "+h.Schema.Noun+" failed", err, "Could not save changes.")
		return
	}

	if !owner {
		h.Audit.RecordUpdated(r.Context(), r, v.IdentityID, meta.SubmitterID, h.Schema.Noun, meta.ID.Hex())
	}
	h.Publish(livefeed.Updated, updated)
	uierrors.JSON(w, http.StatusOK, updated)
}

// Delete removes a record. Only the submitter or an admin may delete.
func (h *Handler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	row, ok := h.Load(w, r)
	if !ok {
		return
	}
	meta := *P(&row).Base()
	owner := meta.SubmitterID == v.IdentityID
	if !h.canMutate(v, owner) {
		uierrors.Forbidden(w, "You can only delete your own "+h.Schema.Noun+"s.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	err := h.Store.Delete(ctx, meta.ID)
	if errors.Is(err, recordstore.ErrNotFound) {
		uierrors.NotFound(w, h.notFound())
		return
	}
	if err != nil {
		h.flash(w, r, auth.FlashError, "Could not delete the "+h.Schema.Noun+". Please try again.")
		h.ErrLog.LogServerError(w, r, "delete "+h.Schema.Noun+" failed", err, "Could not delete.")
		return
	}

	if !owner {
		h.Audit.RecordDeleted(r.Context(), r, v.IdentityID, meta.SubmitterID, h.Schema.Noun, meta.ID.Hex())
	}
	h.Publish(livefeed.Deleted, row)
	w.WriteHeader(http.StatusNoContent)
}

// Stream sends live changes for the schema's topic as server-sent events.
func (h *Handler[T, P]) Stream(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Viewer(w, r)
	if !ok {
		return
	}
	if h.Feed == nil || h.Schema.Topic == "" {
		uierrors.NotFound(w, "No live feed for "+h.Schema.Noun+"s.")
		return
	}
	audience := ""
	if h.Schema.Audience != nil && !h.console {
		audience = v.IdentityID
	}
	livefeed.Stream(w, r, h.Feed.Subscribe(h.Schema.Topic, audience, 0))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers shared with feature packages                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Viewer returns the gated viewer or answers 401.
func (h *Handler[T, P]) Viewer(w http.ResponseWriter, r *http.Request) (auth.Viewer, bool) {
	v, ok := auth.ViewerFrom(r)
	if !ok || v.IdentityID == "" {
		uierrors.Write(w, http.StatusUnauthorized, "Sign in to continue.")
		return auth.Viewer{}, false
	}
	return v, true
}

// Load reads the record named by the {id} URL parameter or answers 400/404.
func (h *Handler[T, P]) Load(w http.ResponseWriter, r *http.Request) (T, bool) {
	var zero T
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.BadRequest(w, "Invalid "+h.Schema.Noun+" id.")
		return zero, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	row, err := h.Store.Get(ctx, id)
	if errors.Is(err, recordstore.ErrNotFound) {
		uierrors.NotFound(w, h.notFound())
		return zero, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load "+h.Schema.Noun+" failed", err, "Could not load the "+h.Schema.Noun+".")
		return zero, false
	}
	return row, true
}

// Publish sends a change to live subscribers.
func (h *Handler[T, P]) Publish(kind string, row T) {
	if h.Feed == nil || h.Schema.Topic == "" {
		return
	}
	ev := livefeed.Event{
		Topic: h.Schema.Topic,
		Kind:  kind,
		ID:    P(&row).Base().ID.Hex(),
		Data:  row,
	}
	if h.Schema.Audience != nil {
		ev.Audience = h.Schema.Audience(row)
	}
	h.Feed.Publish(ev)
}

func (h *Handler[T, P]) scope(v auth.Viewer) bson.M {
	switch {
	case h.console:
		return bson.M{}
	case h.Schema.Scope != nil:
		return h.Schema.Scope(v)
	case h.Schema.OwnerOnly:
		return bson.M{"submitter_id": v.IdentityID}
	default:
		return bson.M{}
	}
}

func (h *Handler[T, P]) canRead(v auth.Viewer, row T) bool {
	switch {
	case h.console || v.IsAdmin:
		return true
	case h.Schema.CanRead != nil:
		return h.Schema.CanRead(v, row)
	case h.Schema.OwnerOnly:
		return P(&row).Base().SubmitterID == v.IdentityID
	default:
		return true
	}
}

func (h *Handler[T, P]) canMutate(v auth.Viewer, owner bool) bool {
	return owner || v.IsAdmin
}

func (h *Handler[T, P]) notFound() string {
	return "That " + h.Schema.Noun + " was not found."
}

func (h *Handler[T, P]) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	if h.Flash != nil {
		h.Flash.AddFlash(w, r, kind, msg)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxRecordBody))
	return dec.Decode(dst)
}

// pick returns the listed bson keys of row. Keys dropped by omitempty are
// set to null so clearing a field takes effect.
func pick(row any, keys []string) (bson.M, error) {
	raw, err := bson.Marshal(row)
	if err != nil {
		return nil, err
	}
	var all bson.M
	if err := bson.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	set := make(bson.M, len(keys))
	for _, k := range keys {
		set[k] = all[k]
	}
	return set, nil
}
