package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/campushub/internal/app/system/identity"
	"github.com/dalemusser/campushub/internal/testutil/memstore"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newProvider() (*identity.Provider, *memstore.Identities) {
	store := memstore.NewIdentities()
	return identity.NewProvider(store, zap.NewNop()).WithHashCost(bcrypt.MinCost), store
}

func TestCreateAccountAndSignIn(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()

	created, err := p.CreateAccount(ctx, identity.NewAccount{
		Email:       "Alice@Campus.edu",
		Password:    "s3cret!",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if created.ID == "" || created.Email != "alice@campus.edu" {
		t.Errorf("created = %+v", created)
	}

	got, err := p.SignIn(ctx, "alice@campus.edu", "s3cret!")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("SignIn ID = %q, want %q", got.ID, created.ID)
	}
}

func TestSignIn_BadCredentials(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	if _, err := p.CreateAccount(ctx, identity.NewAccount{Email: "bob@campus.edu", Password: "password1"}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "bob@campus.edu", "nope-nope"},
		{"unknown email", "carol@campus.edu", "password1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.SignIn(ctx, tt.email, tt.password)
			if err != identity.ErrBadCredentials {
				t.Errorf("err = %v, want ErrBadCredentials unmodified", err)
			}
		})
	}
}

func TestCreateAccount_Errors(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	if _, err := p.CreateAccount(ctx, identity.NewAccount{Email: "dup@campus.edu", Password: "password1"}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	tests := []struct {
		name string
		in   identity.NewAccount
		want error
	}{
		{"duplicate email", identity.NewAccount{Email: "DUP@campus.edu", Password: "password1"}, identity.ErrDuplicateEmail},
		{"bad email", identity.NewAccount{Email: "not-an-email", Password: "password1"}, identity.ErrInvalidEmail},
		{"short password", identity.NewAccount{Email: "new@campus.edu", Password: "abc"}, identity.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreateAccount(ctx, tt.in)
			if err != tt.want {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFederated(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()

	first, created, err := p.Federated(ctx, identity.FederatedUser{Subject: "g-1", Email: "gina@campus.edu", Name: "Gina"})
	if err != nil || !created {
		t.Fatalf("first Federated = %v, %v", created, err)
	}
	again, created, err := p.Federated(ctx, identity.FederatedUser{Subject: "g-1", Email: "gina@campus.edu"})
	if err != nil || created {
		t.Fatalf("second Federated = %v, %v", created, err)
	}
	if again.ID != first.ID {
		t.Errorf("second login got a different identity: %q vs %q", again.ID, first.ID)
	}

	// federated-only identities cannot use a password
	if _, err := p.SignIn(ctx, "gina@campus.edu", ""); err != identity.ErrBadCredentials {
		t.Errorf("SignIn federated-only err = %v, want ErrBadCredentials", err)
	}
}

func TestFederated_LinksExistingEmail(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()

	pw, err := p.CreateAccount(ctx, identity.NewAccount{Email: "hal@campus.edu", Password: "password1"})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	fed, created, err := p.Federated(ctx, identity.FederatedUser{Subject: "g-2", Email: "Hal@Campus.edu"})
	if err != nil {
		t.Fatalf("Federated failed: %v", err)
	}
	if created || fed.ID != pw.ID {
		t.Errorf("expected link to existing identity %q, got %q (created=%v)", pw.ID, fed.ID, created)
	}
}

func TestGet_NotFound(t *testing.T) {
	p, _ := newProvider()
	if _, err := p.Get(context.Background(), "missing"); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
