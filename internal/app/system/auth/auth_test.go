package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil/memstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// staticLoader returns a fixed profile for every identity.
type staticLoader struct{ p *models.Profile }

func (l staticLoader) Find(context.Context, string) (*models.Profile, error) {
	return l.p, nil
}

// blockingLoader never answers until its context ends.
type blockingLoader struct{}

func (blockingLoader) Find(ctx context.Context, _ string) (*models.Profile, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func resolvedAs(t *testing.T, role string) *session.Resolver {
	t.Helper()
	var p *models.Profile
	if role != "" {
		p = &models.Profile{ID: "u1", Role: role, Status: models.StatusActive}
	}
	res := session.NewResolver(staticLoader{p: p}, time.Second, zap.NewNop())
	t.Cleanup(res.Close)
	res.OnIdentityChanged(&models.Identity{ID: "u1", Email: "u1@campus.edu"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := res.WaitUntilResolved(ctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return res
}

func signedOut(t *testing.T) *session.Resolver {
	t.Helper()
	res := session.NewResolver(staticLoader{}, time.Second, zap.NewNop())
	t.Cleanup(res.Close)
	return res
}

func protected(t *testing.T, sm *auth.SessionManager, realm gate.Realm) http.Handler {
	t.Helper()
	return sm.RequireRealm(realm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := auth.ViewerFrom(r)
		if !ok {
			t.Error("viewer missing on admitted request")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content:" + v.Role))
	}))
}

func TestRequireRealm_SignedOut_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Participant)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/complaints", nil)
	req.Header.Set("Accept", "text/html")
	req = auth.WithTestSession(req, "sid", signedOut(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "/login?return=") {
		t.Errorf("expected redirect to /login?return=..., got %q", location)
	}
	if !strings.Contains(location, "%2Fdashboard%2Fcomplaints") {
		t.Errorf("expected return path in redirect, got %q", location)
	}
}

func TestRequireRealm_SignedOut_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Participant)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/complaints", nil)
	req.Header.Set("Accept", "application/json")
	req = auth.WithTestSession(req, "sid", signedOut(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestRequireRealm_SignedOut_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Participant)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	req = auth.WithTestSession(req, "sid", signedOut(t))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hx)
	}
}

func TestRequireRealm_Participant_Admitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Participant)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = auth.WithTestSession(req, "sid", resolvedAs(t, models.RoleParticipant))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "protected content:participant" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRequireRealm_NoProfileStillEntersParticipantRealm(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Participant)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = auth.WithTestSession(req, "sid", resolvedAs(t, ""))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireRealm_AdminRealm_ParticipantDenied(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Admin)

	tests := []struct {
		name   string
		accept string
		htmx   bool
		want   int
	}{
		{"html", "text/html", false, http.StatusSeeOther},
		{"htmx", "", true, http.StatusForbidden},
		{"api", "application/json", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			req = auth.WithTestSession(req, "sid", resolvedAs(t, models.RoleParticipant))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.name == "html" && !strings.HasPrefix(rec.Header().Get("Location"), "/login") {
				t.Errorf("admin denial should go to /login, got %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestRequireRealm_AdminRealm_AdminAdmitted(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Admin)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = auth.WithTestSession(req, "sid", resolvedAs(t, models.RoleAdmin))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireRealm_Unresolved_Returns503(t *testing.T) {
	timeouts.Configure(timeouts.Config{Resolve: 50 * time.Millisecond})
	t.Cleanup(timeouts.Reset)

	sm := newTestSessionManager(t)
	handler := sm.RequireRealm(gate.Participant)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran before the session resolved")
	}))

	res := session.NewResolver(blockingLoader{}, time.Minute, zap.NewNop())
	t.Cleanup(res.Close)
	res.OnIdentityChanged(&models.Identity{ID: "u1"})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = auth.WithTestSession(req, "sid", res)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestRequireRealm_NoSession_Returns503(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRealm(gate.Participant)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestWithTestViewer_BypassesResolution(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := protected(t, sm, gate.Admin)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = auth.WithTestViewer(req, auth.Viewer{IdentityID: "u1", Role: models.RoleAdmin, IsAdmin: true})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestLoadSession_SignInRoundTrip(t *testing.T) {
	identities := memstore.NewIdentities()
	profiles := memstore.NewProfiles()
	provider := identity.NewProvider(identities, zap.NewNop()).WithHashCost(bcrypt.MinCost)
	registry := session.NewRegistry(profiles, provider, time.Second, zap.NewNop())
	t.Cleanup(registry.CloseAll)

	ctx := context.Background()
	id, err := provider.CreateAccount(ctx, identity.NewAccount{Email: "ana@campus.edu", Password: "password1"})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := profiles.Create(ctx, models.Profile{ID: id.ID, FullName: "Ana", Role: models.RoleParticipant}); err != nil {
		t.Fatalf("Create profile: %v", err)
	}

	sm := newTestSessionManager(t).UseRegistry(registry, gate.AdminCheck{})

	// First request: mint a session and sign in.
	var sid string
	signIn := sm.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid = auth.SID(r)
		if err := sm.SignIn(w, r, id.ID); err != nil {
			t.Fatalf("SignIn: %v", err)
		}
	}))
	rec := httptest.NewRecorder()
	signIn.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if sid == "" {
		t.Fatal("LoadSession did not assign a session id")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	// Second request with the cookie: the gate admits the identity.
	page := sm.LoadSession(protected(t, sm, gate.Participant))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[len(cookies)-1])
	rec = httptest.NewRecorder()
	page.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if _, ok := registry.Get(sid); !ok {
		t.Error("registry has no resolver for the session id")
	}
}

func TestFlashes_DrainOnce(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	sm.AddFlash(rec, httptest.NewRequest(http.MethodPost, "/x", nil), auth.FlashError, "Could not save: try again")
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no cookie after AddFlash")
	}

	req := httptest.NewRequest(http.MethodGet, "/session/flashes", nil)
	req.AddCookie(cookies[len(cookies)-1])
	got := sm.Flashes(httptest.NewRecorder(), req)
	if len(got) != 1 || got[0].Kind != auth.FlashError || got[0].Message != "Could not save: try again" {
		t.Errorf("Flashes = %+v", got)
	}
}
