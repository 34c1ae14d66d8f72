package users_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/campushub/internal/app/features/errors"
	"github.com/dalemusser/campushub/internal/app/features/users"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil"
	"github.com/dalemusser/campushub/internal/testutil/memstore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type countingRefresher struct{ ids []string }

func (c *countingRefresher) RefreshIdentity(id string) int {
	c.ids = append(c.ids, id)
	return 1
}

func setup(t *testing.T) (chi.Router, *memstore.Profiles, *countingRefresher) {
	t.Helper()
	profiles := memstore.NewProfiles()
	ref := &countingRefresher{}
	h := users.NewHandler(profiles, ref, nil, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, profiles, ref
}

func seed(t *testing.T, profiles *memstore.Profiles, id, name, role string) {
	t.Helper()
	if _, err := profiles.Create(context.Background(), models.Profile{ID: id, FullName: name, Email: id + "@campus.test", Role: role}); err != nil {
		t.Fatal(err)
	}
}

func patch(r chi.Router, id, body string) *httptest.ResponseRecorder {
	return patchAs(r, id, body, testutil.AdminViewer().IdentityID)
}

func patchAs(r chi.Router, id, body, actorID string) *httptest.ResponseRecorder {
	v := testutil.AdminViewer()
	v.IdentityID = actorID
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithViewer(testutil.NewJSONRequest(http.MethodPatch, "/"+id, body), v))
	return rec
}

func TestList_FiltersByRole(t *testing.T) {
	r, profiles, _ := setup(t)
	seed(t, profiles, "a", "Ada", models.RoleAdmin)
	seed(t, profiles, "b", "Ben", models.RoleParticipant)
	seed(t, profiles, "c", "Cy", models.RoleParticipant)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/?role=participant", nil), testutil.AdminViewer()))

	var page struct {
		Items []models.Profile `json:"items"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.Items[0].FullName != "Ben" {
		t.Errorf("page = %+v", page)
	}
}

func TestUpdate_PromoteRefreshesSessions(t *testing.T) {
	r, profiles, ref := setup(t)
	seed(t, profiles, "b", "Ben", models.RoleParticipant)

	rec := patch(r, "b", `{"role":"Admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	p, _ := profiles.GetByID(context.Background(), "b")
	if p.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want admin", p.Role)
	}
	if len(ref.ids) != 1 || ref.ids[0] != "b" {
		t.Errorf("refreshed = %v", ref.ids)
	}
}

func TestUpdate_Disable(t *testing.T) {
	r, profiles, _ := setup(t)
	seed(t, profiles, "b", "Ben", models.RoleParticipant)

	if rec := patch(r, "b", `{"status":"disabled"}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	p, _ := profiles.GetByID(context.Background(), "b")
	if p.Status != models.StatusDisabled {
		t.Errorf("Status = %q", p.Status)
	}
}

func TestUpdate_Rejections(t *testing.T) {
	r, profiles, ref := setup(t)
	seed(t, profiles, "a", "Ada", models.RoleAdmin)
	seed(t, profiles, "b", "Ben", models.RoleParticipant)

	tests := []struct {
		name  string
		id    string
		actor string
		body  string
		want  int
	}{
		{"unknown role", "b", "a", `{"role":"wizard"}`, http.StatusUnprocessableEntity},
		{"unknown status", "b", "a", `{"status":"frozen"}`, http.StatusUnprocessableEntity},
		{"missing user", "zz", "a", `{"role":"admin"}`, http.StatusNotFound},
		{"empty patch", "b", "a", `{}`, http.StatusBadRequest},
		{"self demote", "a", "a", `{"role":"participant"}`, http.StatusForbidden},
		{"self disable", "a", "a", `{"status":"disabled"}`, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := patchAs(r, tc.id, tc.body, tc.actor)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
	if len(ref.ids) != 0 {
		t.Errorf("rejected updates refreshed sessions: %v", ref.ids)
	}
}

func TestUpdate_InvalidStatusWritesNothing(t *testing.T) {
	r, profiles, ref := setup(t)
	seed(t, profiles, "u2", "Uma", models.RoleAdmin)

	rec := patch(r, "u2", `{"role":"participant","status":"bogus"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	p, _ := profiles.GetByID(context.Background(), "u2")
	if p.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want admin unchanged", p.Role)
	}
	if len(ref.ids) != 0 {
		t.Errorf("refreshed = %v, want none", ref.ids)
	}
}

// statusFailingProfiles stores role changes but fails every status change.
type statusFailingProfiles struct {
	*memstore.Profiles
}

func (s statusFailingProfiles) SetStatus(context.Context, string, string) (models.Profile, error) {
	return models.Profile{}, errors.New("write timeout")
}

func TestUpdate_PartialWriteStillRefreshesSessions(t *testing.T) {
	profiles := memstore.NewProfiles()
	seed(t, profiles, "u2", "Uma", models.RoleAdmin)
	ref := &countingRefresher{}
	h := users.NewHandler(statusFailingProfiles{profiles}, ref, nil, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := patch(r, "u2", `{"role":"participant","status":"disabled"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	p, _ := profiles.GetByID(context.Background(), "u2")
	if p.Role != models.RoleParticipant {
		t.Fatalf("Role = %q, want participant", p.Role)
	}
	if len(ref.ids) != 1 || ref.ids[0] != "u2" {
		t.Errorf("refreshed = %v, want [u2]", ref.ids)
	}
}

func TestShow_NotFound(t *testing.T) {
	r, _, _ := setup(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithViewer(httptest.NewRequest(http.MethodGet, "/nobody", nil), testutil.AdminViewer()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
