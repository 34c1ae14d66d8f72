package collection_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/app/features/collection"
	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/listview"
	"github.com/dalemusser/campushub/internal/app/system/livefeed"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil"
	"github.com/dalemusser/campushub/internal/testutil/memstore"
	"go.uber.org/zap"
)

type recordingFlash struct {
	kinds    []string
	messages []string
}

func (f *recordingFlash) AddFlash(_ http.ResponseWriter, _ *http.Request, kind, msg string) {
	f.kinds = append(f.kinds, kind)
	f.messages = append(f.messages, msg)
}

func complaintSchema() collection.Schema[models.Complaint] {
	return collection.Schema[models.Complaint]{
		Noun:  "complaint",
		Topic: "complaints",
		Enums: []string{"status"},
		Fields: listview.Fields[models.Complaint]{
			Text: func(c models.Complaint) []string { return []string{c.Title, c.Description} },
			Enum: func(c models.Complaint, k string) string {
				if k == "status" {
					return c.Status
				}
				return ""
			},
			Date: func(c models.Complaint) time.Time { return c.CreatedAt },
		},
		OwnerOnly: true,
		Prepare: func(c *models.Complaint, _ auth.Viewer) {
			c.Status = models.ComplaintOpen
		},
		OwnerFields:   []string{"title", "description", "category", "location"},
		ConsoleFields: []string{"status", "admin_note"},
	}
}

type fixture struct {
	store *memstore.Records[models.Complaint, *models.Complaint]
	feed  *livefeed.Hub
	flash *recordingFlash
	h     *collection.Handler[models.Complaint, *models.Complaint]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.NewRecords[models.Complaint, *models.Complaint](),
		feed:  livefeed.NewHub(zap.NewNop()),
		flash: &recordingFlash{},
	}
	t.Cleanup(f.feed.Close)
	f.h = collection.NewHandler[models.Complaint, *models.Complaint](
		complaintSchema(), f.store, collection.Deps{
			Feed:   f.feed,
			Flash:  f.flash,
			ErrLog: uierrors.NewErrorLogger(zap.NewNop()),
			Log:    zap.NewNop(),
		})
	return f
}

func (f *fixture) create(t *testing.T, v auth.Viewer, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.WithViewer(testutil.NewJSONRequest(http.MethodPost, "/complaints", body), v)
	rec := httptest.NewRecorder()
	f.h.Create(rec, req)
	return rec
}

func (f *fixture) seed(t *testing.T, v auth.Viewer, title string) models.Complaint {
	t.Helper()
	rec := f.create(t, v, `{"title":"`+title+`","description":"details"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed %q: status %d body %s", title, rec.Code, rec.Body.String())
	}
	var c models.Complaint
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return c
}

func withID(r *http.Request, c models.Complaint) *http.Request {
	return testutil.WithChiURLParam(r, "id", c.ID.Hex())
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) paging.Page[models.Complaint] {
	t.Helper()
	var p paging.Page[models.Complaint]
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode page: %v (%s)", err, rec.Body.String())
	}
	return p
}

func TestCreate_StoresWithSubmitterAndPublishes(t *testing.T) {
	f := newFixture(t)
	v := testutil.ParticipantViewer()
	sub := f.feed.Subscribe("complaints", "", 4)
	defer sub.Close()

	c := f.seed(t, v, "Broken projector")

	if c.SubmitterID != v.IdentityID {
		t.Errorf("SubmitterID = %q, want %q", c.SubmitterID, v.IdentityID)
	}
	if c.Status != models.ComplaintOpen {
		t.Errorf("Status = %q, want open", c.Status)
	}
	if c.ID.IsZero() {
		t.Error("expected an id to be assigned")
	}
	select {
	case ev := <-sub.C():
		if ev.Kind != livefeed.Created || ev.ID != c.ID.Hex() {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no live event published")
	}
	if len(f.flash.kinds) != 0 {
		t.Errorf("unexpected flashes: %v", f.flash.messages)
	}
}

func TestCreate_IgnoresClientSuppliedSubmitter(t *testing.T) {
	f := newFixture(t)
	v := testutil.ParticipantViewer()

	rec := f.create(t, v, `{"title":"t","description":"d","submitter_id":"someone-else"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d", rec.Code)
	}
	var c models.Complaint
	_ = json.Unmarshal(rec.Body.Bytes(), &c)
	if c.SubmitterID != v.IdentityID {
		t.Errorf("SubmitterID = %q, want viewer", c.SubmitterID)
	}
}

func TestCreate_ValidationFailureStoresNothing(t *testing.T) {
	f := newFixture(t)

	rec := f.create(t, testutil.ParticipantViewer(), `{"title":"   ","description":"d"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if f.store.Len() != 0 {
		t.Errorf("store has %d records, want 0", f.store.Len())
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	f := newFixture(t)

	rec := f.create(t, testutil.ParticipantViewer(), `{"title":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreate_WriteFailureFlashesAndRetryAppendsOnce(t *testing.T) {
	f := newFixture(t)
	v := testutil.ParticipantViewer()
	body := `{"title":"Leaky roof","description":"Room 12"}`

	f.store.FailWith = errors.New("write refused")
	rec := f.create(t, v, body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if f.store.Len() != 0 {
		t.Fatalf("failed write left %d records", f.store.Len())
	}
	if len(f.flash.kinds) != 1 || f.flash.kinds[0] != auth.FlashError {
		t.Fatalf("flashes = %v, want one error flash", f.flash.kinds)
	}

	f.store.FailWith = nil
	rec = f.create(t, v, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("retry status = %d, want 201", rec.Code)
	}
	if f.store.Len() != 1 {
		t.Errorf("store has %d records after retry, want 1", f.store.Len())
	}
}

func TestCreate_RequiresViewer(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()

	f.h.Create(rec, testutil.NewJSONRequest(http.MethodPost, "/complaints", `{}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestList_ScopesParticipantsToOwnRecords(t *testing.T) {
	f := newFixture(t)
	alice := testutil.ParticipantViewer()
	bob := testutil.ParticipantViewer()
	f.seed(t, alice, "alice one")
	f.seed(t, bob, "bob one")
	f.seed(t, alice, "alice two")

	rec := httptest.NewRecorder()
	f.h.List(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/complaints", nil), alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := decodePage(t, rec)
	if page.Total != 2 {
		t.Fatalf("Total = %d, want 2", page.Total)
	}
	if page.Items[0].Title != "alice two" {
		t.Errorf("first item = %q, want newest first", page.Items[0].Title)
	}
	for _, c := range page.Items {
		if c.SubmitterID != alice.IdentityID {
			t.Errorf("saw another submitter's record %q", c.Title)
		}
	}
}

func TestList_ConsoleSeesEverything(t *testing.T) {
	f := newFixture(t)
	f.seed(t, testutil.ParticipantViewer(), "one")
	f.seed(t, testutil.ParticipantViewer(), "two")

	rec := httptest.NewRecorder()
	f.h.Console().List(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/admin/complaints", nil), testutil.AdminViewer()))

	if got := decodePage(t, rec).Total; got != 2 {
		t.Errorf("Total = %d, want 2", got)
	}
}

func TestList_SearchAndEnumFilter(t *testing.T) {
	f := newFixture(t)
	v := testutil.ParticipantViewer()
	f.seed(t, v, "Broken Projector")
	f.seed(t, v, "Cold canteen food")

	rec := httptest.NewRecorder()
	f.h.List(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/complaints?q=projector&status=open", nil), v))
	page := decodePage(t, rec)
	if page.Total != 1 || page.Items[0].Title != "Broken Projector" {
		t.Errorf("page = %+v", page)
	}

	rec = httptest.NewRecorder()
	f.h.List(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/complaints?status=resolved", nil), v))
	if got := decodePage(t, rec).Total; got != 0 {
		t.Errorf("resolved Total = %d, want 0", got)
	}
}

func TestList_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith = errors.New("down")

	rec := httptest.NewRecorder()
	f.h.List(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/complaints", nil), testutil.ParticipantViewer()))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGet_HidesOtherParticipantsRecords(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, testutil.ParticipantViewer(), "private")

	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest(http.MethodGet, "/complaints/x", nil), c)
	f.h.Get(rec, testutil.WithViewer(req, testutil.ParticipantViewer()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other participant status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.h.Get(rec, testutil.WithViewer(req, testutil.AdminViewer()))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}

func TestGet_InvalidID(t *testing.T) {
	f := newFixture(t)
	req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodGet, "/complaints/nope", nil), "id", "nope")

	rec := httptest.NewRecorder()
	f.h.Get(rec, testutil.WithViewer(req, testutil.ParticipantViewer()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdate_OwnerChangesOwnerFieldsOnly(t *testing.T) {
	f := newFixture(t)
	v := testutil.ParticipantViewer()
	c := f.seed(t, v, "old title")

	req := withID(testutil.NewJSONRequest(http.MethodPatch, "/complaints/x", `{"title":"new title","status":"resolved"}`), c)
	rec := httptest.NewRecorder()
	f.h.Update(rec, testutil.WithViewer(req, v))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var got models.Complaint
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Title != "new title" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Status != models.ComplaintOpen {
		t.Errorf("owner changed Status to %q", got.Status)
	}
	if got.Description != "details" {
		t.Errorf("Description = %q, want untouched", got.Description)
	}
}

func TestUpdate_ForbiddenForOtherParticipant(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, testutil.ParticipantViewer(), "mine")

	req := withID(testutil.NewJSONRequest(http.MethodPatch, "/complaints/x", `{"title":"yours"}`), c)
	rec := httptest.NewRecorder()
	f.h.Update(rec, testutil.WithViewer(req, testutil.ParticipantViewer()))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestUpdate_ConsoleChangesStatus(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, testutil.ParticipantViewer(), "noise")

	req := withID(testutil.NewJSONRequest(http.MethodPatch, "/admin/complaints/x", `{"status":"resolved","admin_note":"fixed","title":"ignored"}`), c)
	rec := httptest.NewRecorder()
	f.h.Console().Update(rec, testutil.WithViewer(req, testutil.AdminViewer()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var got models.Complaint
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != models.ComplaintResolved || got.AdminNote != "fixed" {
		t.Errorf("got status %q note %q", got.Status, got.AdminNote)
	}
	if got.Title != "noise" {
		t.Errorf("console changed Title to %q", got.Title)
	}
}

func TestUpdate_InvalidEnumRejected(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, testutil.ParticipantViewer(), "noise")

	req := withID(testutil.NewJSONRequest(http.MethodPatch, "/admin/complaints/x", `{"status":"maybe"}`), c)
	rec := httptest.NewRecorder()
	f.h.Console().Update(rec, testutil.WithViewer(req, testutil.AdminViewer()))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestDelete_OwnerAndStranger(t *testing.T) {
	f := newFixture(t)
	owner := testutil.ParticipantViewer()
	c := f.seed(t, owner, "temp")
	req := withID(httptest.NewRequest(http.MethodDelete, "/complaints/x", nil), c)

	rec := httptest.NewRecorder()
	f.h.Delete(rec, testutil.WithViewer(req, testutil.ParticipantViewer()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.h.Delete(rec, testutil.WithViewer(req, owner))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("owner status = %d, want 204", rec.Code)
	}
	if f.store.Len() != 0 {
		t.Errorf("store has %d records, want 0", f.store.Len())
	}

	rec = httptest.NewRecorder()
	f.h.Delete(rec, testutil.WithViewer(req, owner))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDelete_AdminMayDeleteAnyRecord(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, testutil.ParticipantViewer(), "spam")
	req := withID(httptest.NewRequest(http.MethodDelete, "/admin/complaints/x", nil), c)

	rec := httptest.NewRecorder()
	f.h.Console().Delete(rec, testutil.WithViewer(req, testutil.AdminViewer()))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestStream_NoFeedIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.h.Feed = nil

	rec := httptest.NewRecorder()
	f.h.Stream(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/complaints/live", nil), testutil.ParticipantViewer()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "live feed") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
