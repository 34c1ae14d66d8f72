package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/domain/models"
)

func TestAccounts_SignupDefaultsToParticipant(t *testing.T) {
	f := newFixture(false)
	id, err := f.accounts.Signup(context.Background(), "s1", session.SignupFields{
		FullName: "Alice",
		Email:    "alice@campus.edu",
		Password: "password1",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	tr := f.resolved(t, "s1")
	if tr.IdentityID() != id.ID {
		t.Errorf("session identity = %q, want %q", tr.IdentityID(), id.ID)
	}
	if tr.Profile == nil || tr.Profile.FullName != "Alice" || tr.Profile.Role != models.RoleParticipant {
		t.Errorf("profile = %+v", tr.Profile)
	}
}

func TestAccounts_SignupRoles(t *testing.T) {
	tests := []struct {
		name     string
		allow    bool
		role     string
		wantErr  error
		wantRole string
	}{
		{"explicit participant", false, "participant", nil, models.RoleParticipant},
		{"admin when allowed", true, "Admin", nil, models.RoleAdmin},
		{"admin when not allowed", false, "admin", session.ErrAdminSignupDisabled, ""},
		{"other roles rejected", true, "organizer", session.ErrSignupRole, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.allow)
			id, err := f.accounts.Signup(context.Background(), "s", session.SignupFields{
				FullName: "X", Email: "x@campus.edu", Password: "password1", Role: tt.role,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if _, lookupErr := f.identities.GetByEmail(context.Background(), "x@campus.edu"); lookupErr == nil {
					t.Error("rejected signup still created an identity")
				}
				return
			}
			p, err := f.profiles.GetByID(context.Background(), id.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if p.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", p.Role, tt.wantRole)
			}
		})
	}
}

func TestAccounts_DuplicateSignupSurfacesProviderError(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	fields := session.SignupFields{FullName: "Dup", Email: "dup@campus.edu", Password: "password1"}
	if _, err := f.accounts.Signup(ctx, "s1", fields); err != nil {
		t.Fatalf("first Signup: %v", err)
	}
	if _, err := f.accounts.Signup(ctx, "s2", fields); err != identity.ErrDuplicateEmail {
		t.Errorf("err = %v, want identity.ErrDuplicateEmail unmodified", err)
	}
	if _, ok := f.registry.Get("s2"); ok {
		t.Error("failed signup created a session")
	}
}

func TestAccounts_LoginAndLogout(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	if _, err := f.accounts.Signup(ctx, "setup", session.SignupFields{FullName: "Cy", Email: "cy@campus.edu", Password: "password1"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, err := f.accounts.Login(ctx, "s1", "cy@campus.edu", "wrong-pass"); err != identity.ErrBadCredentials {
		t.Fatalf("bad login err = %v, want ErrBadCredentials", err)
	}
	if _, err := f.accounts.Login(ctx, "s1", "cy@campus.edu", "password1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tr := f.resolved(t, "s1"); !tr.SignedIn() || tr.Profile == nil {
		t.Fatalf("after login triple = %+v", tr)
	}

	f.accounts.Logout("s1")
	if tr := f.resolved(t, "s1"); tr.SignedIn() {
		t.Errorf("after logout triple = %+v", tr)
	}
}

func TestAccounts_FederatedLoginCreatesProfileOnce(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	fu := identity.FederatedUser{Subject: "g-42", Email: "gus@campus.edu", Name: "Gus"}

	id, err := f.accounts.FederatedLogin(ctx, "s1", fu)
	if err != nil {
		t.Fatalf("FederatedLogin: %v", err)
	}
	if _, err := f.profiles.SetRole(ctx, id.ID, models.RoleVolunteer); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	if _, err := f.accounts.FederatedLogin(ctx, "s2", fu); err != nil {
		t.Fatalf("second FederatedLogin: %v", err)
	}
	tr := f.resolved(t, "s2")
	if tr.Profile == nil || tr.Profile.Role != models.RoleVolunteer {
		t.Errorf("second login should keep existing profile, got %+v", tr.Profile)
	}
}

func TestAccounts_SignupProfileWriteFailure(t *testing.T) {
	f := newFixture(false)
	f.profiles.FailWith = errors.New("write refused")

	_, err := f.accounts.Signup(context.Background(), "s1", session.SignupFields{FullName: "Eve", Email: "eve@campus.edu", Password: "password1"})
	if err == nil {
		t.Fatal("expected error when profile write fails")
	}
	if _, ok := f.registry.Get("s1"); ok {
		t.Error("session signed in despite failed signup")
	}
}
