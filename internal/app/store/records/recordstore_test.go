package recordstore_test

import (
	"errors"
	"testing"
	"time"

	recordstore "github.com/dalemusser/campushub/internal/app/store/records"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recordstore.New[models.Complaint](db, "complaints")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Complaint{
		Meta:        models.Meta{SubmitterID: "u1"},
		Title:       "Broken chair",
		Description: "Lecture hall B",
		Status:      models.ComplaintOpen,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() || created.CreatedAt.IsZero() {
		t.Fatalf("Create did not stamp meta: %+v", created.Meta)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil || got.Title != "Broken chair" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	updated, err := store.Update(ctx, created.ID, bson.M{"status": models.ComplaintResolved})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.ComplaintResolved || !updated.UpdatedAt.After(created.CreatedAt.Add(-time.Millisecond)) {
		t.Errorf("Update result = %+v", updated)
	}

	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), bson.M{"title": "x"}); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("Update(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStore_ListNewestFirstAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recordstore.New[models.LostItem](db, "lost_found")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, title := range []string{"umbrella", "keys", "wallet"} {
		if _, err := store.Create(ctx, models.LostItem{Meta: models.Meta{SubmitterID: "u1"}, Kind: models.KindLost, Title: title}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := store.Create(ctx, models.LostItem{Meta: models.Meta{SubmitterID: "u2"}, Kind: models.KindFound, Title: "scarf"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := store.List(ctx, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 || all[0].Title != "scarf" || all[3].Title != "umbrella" {
		t.Errorf("List order = %v", titles(all))
	}

	mine, err := store.List(ctx, bson.M{"submitter_id": "u1"})
	if err != nil || len(mine) != 3 {
		t.Errorf("List(u1) = %v, %v", titles(mine), err)
	}

	n, err := store.Count(ctx, bson.M{"kind": models.KindFound})
	if err != nil || n != 1 {
		t.Errorf("Count(found) = %d, %v", n, err)
	}
}

func TestStore_AddToSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recordstore.New[models.Notification](db, "notifications")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Create(ctx, models.Notification{Title: "Exam timetable posted"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if n, err = store.AddToSet(ctx, n.ID, "read_by", "u1"); err != nil {
			t.Fatalf("AddToSet failed: %v", err)
		}
	}
	if len(n.ReadBy) != 1 || !n.IsReadBy("u1") {
		t.Errorf("ReadBy = %v", n.ReadBy)
	}
}

func TestStore_UpdateWhere(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recordstore.New[models.LostItem](db, "lost_found")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	it, err := store.Create(ctx, models.LostItem{Kind: models.KindFound, Title: "Lab goggles"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	unclaimed := bson.M{"claimed": false}

	got, err := store.UpdateWhere(ctx, it.ID, unclaimed, bson.M{"claimed": true, "claimed_by": "u1"})
	if err != nil || got.ClaimedBy != "u1" {
		t.Fatalf("first UpdateWhere = %+v, %v", got, err)
	}
	if _, err := store.UpdateWhere(ctx, it.ID, unclaimed, bson.M{"claimed": true, "claimed_by": "u2"}); !errors.Is(err, recordstore.ErrNotFound) {
		t.Errorf("second UpdateWhere err = %v, want ErrNotFound", err)
	}
	stored, _ := store.Get(ctx, it.ID)
	if stored.ClaimedBy != "u1" {
		t.Errorf("claimed_by = %q, want u1", stored.ClaimedBy)
	}
}

func titles(items []models.LostItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}
