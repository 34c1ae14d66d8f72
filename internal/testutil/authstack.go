package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/auth"
	"github.com/dalemusser/campushub/internal/app/system/gate"
	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/campushub/internal/testutil/memstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TestSessionKey is a 32+ character cookie key for tests.
const TestSessionKey = "test-session-key-must-be-32-chars-long"

// AuthStack is the in-memory session machinery: identity provider,
// profiles, resolver registry, account flows and the cookie session
// manager.
type AuthStack struct {
	Identities *memstore.Identities
	Profiles   *memstore.Profiles
	Provider   *identity.Provider
	Registry   *session.Registry
	Accounts   *session.Accounts
	Sessions   *auth.SessionManager
}

// NewAuthStack builds an AuthStack with the role-only admin check.
func NewAuthStack(t *testing.T) *AuthStack {
	t.Helper()
	logger := zap.NewNop()
	st := &AuthStack{
		Identities: memstore.NewIdentities(),
		Profiles:   memstore.NewProfiles(),
	}
	st.Provider = identity.NewProvider(st.Identities, logger).WithHashCost(bcrypt.MinCost)
	st.Registry = session.NewRegistry(st.Profiles, st.Provider, time.Second, logger)
	t.Cleanup(st.Registry.CloseAll)
	st.Accounts = session.NewAccounts(st.Provider, st.Profiles, st.Registry, false, logger)

	sm, err := auth.NewSessionManager(TestSessionKey, "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	st.Sessions = sm.UseRegistry(st.Registry, gate.AdminCheck{})
	return st
}

// CreateUser creates an identity with password "password1" and, when role
// is non-empty, a profile with that role.
func (st *AuthStack) CreateUser(t *testing.T, email, name, role string) *models.Identity {
	t.Helper()
	ctx := context.Background()
	id, err := st.Provider.CreateAccount(ctx, identity.NewAccount{Email: email, Password: "password1", DisplayName: name})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if role != "" {
		if _, err := st.Profiles.Create(ctx, models.Profile{ID: id.ID, FullName: name, Email: email, Role: role}); err != nil {
			t.Fatalf("create profile: %v", err)
		}
	}
	return id
}

// Serve runs h behind LoadSession, sending cookies and returning the
// recorder.
func (st *AuthStack) Serve(h http.Handler, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	st.Sessions.LoadSession(h).ServeHTTP(rec, req)
	return rec
}

// LastCookie returns the most recent session cookie written to rec, or
// fallback if none was written.
func LastCookie(rec *httptest.ResponseRecorder, fallback *http.Cookie) *http.Cookie {
	cs := rec.Result().Cookies()
	if len(cs) == 0 {
		return fallback
	}
	return cs[len(cs)-1]
}
