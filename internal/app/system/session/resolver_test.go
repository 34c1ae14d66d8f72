package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/session"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// gatedLoader returns canned profiles. Fetches for ids listed in hold
// block until released, ignoring cancellation so stale completions
// really arrive late.
type gatedLoader struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	errs     map[string]error
	hold     map[string]chan struct{}
	returned map[string]chan struct{}
}

func newGatedLoader() *gatedLoader {
	return &gatedLoader{
		profiles: map[string]*models.Profile{},
		errs:     map[string]error{},
		hold:     map[string]chan struct{}{},
		returned: map[string]chan struct{}{},
	}
}

func (l *gatedLoader) holdFetch(id string) (release func(), returned <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := make(chan struct{})
	r := make(chan struct{})
	l.hold[id] = h
	l.returned[id] = r
	var once sync.Once
	return func() { once.Do(func() { close(h) }) }, r
}

func (l *gatedLoader) Find(_ context.Context, id string) (*models.Profile, error) {
	l.mu.Lock()
	h := l.hold[id]
	r := l.returned[id]
	p := l.profiles[id]
	err := l.errs[id]
	l.mu.Unlock()
	if h != nil {
		<-h
		defer close(r)
	}
	return p, err
}

func ident(id, email string) *models.Identity {
	return &models.Identity{ID: id, Email: email, DisplayName: id}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestResolver_StartsSignedOutAndResolved(t *testing.T) {
	r := session.NewResolver(newGatedLoader(), time.Second, zap.NewNop())
	tr := r.Current()
	if !tr.Resolved || tr.Identity != nil || tr.Profile != nil {
		t.Errorf("initial triple = %+v", tr)
	}
}

func TestResolver_NilIdentityResolvesImmediately(t *testing.T) {
	l := newGatedLoader()
	l.profiles["u1"] = &models.Profile{ID: "u1", Role: models.RoleAdmin}
	r := session.NewResolver(l, time.Second, zap.NewNop())

	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))
	if _, err := r.WaitUntilResolved(waitCtx(t)); err != nil {
		t.Fatalf("wait: %v", err)
	}

	r.OnIdentityChanged(nil)
	tr := r.Current()
	if !tr.Resolved || tr.Identity != nil || tr.Profile != nil {
		t.Errorf("after sign-out triple = %+v", tr)
	}
}

func TestResolver_ProfileOutcomes(t *testing.T) {
	boom := errors.New("network down")
	l := newGatedLoader()
	l.profiles["found"] = &models.Profile{ID: "found", FullName: "Alice", Role: models.RoleParticipant}
	l.errs["broken"] = boom

	tests := []struct {
		name        string
		id          string
		wantProfile bool
		wantErr     error
	}{
		{"profile found", "found", true, nil},
		{"profile absent", "absent", false, nil},
		{"fetch error fails closed", "broken", false, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := session.NewResolver(l, time.Second, zap.NewNop())
			r.OnIdentityChanged(ident(tt.id, tt.id+"@campus.edu"))
			tr, err := r.WaitUntilResolved(waitCtx(t))
			if err != nil {
				t.Fatalf("WaitUntilResolved: %v", err)
			}
			if !tr.Resolved {
				t.Error("triple not resolved")
			}
			if (tr.Profile != nil) != tt.wantProfile {
				t.Errorf("profile = %+v, want present=%v", tr.Profile, tt.wantProfile)
			}
			if !errors.Is(tr.FetchErr, tt.wantErr) {
				t.Errorf("FetchErr = %v, want %v", tr.FetchErr, tt.wantErr)
			}
		})
	}
}

func TestResolver_UnresolvedWhileFetching(t *testing.T) {
	l := newGatedLoader()
	l.profiles["u1"] = &models.Profile{ID: "u1"}
	release, _ := l.holdFetch("u1")
	defer release()

	r := session.NewResolver(l, time.Second, zap.NewNop())
	gen := r.OnIdentityChanged(ident("u1", "u1@campus.edu"))

	tr := r.Current()
	if tr.Resolved {
		t.Fatal("triple resolved before fetch completed")
	}
	if tr.Identity == nil || tr.Profile != nil || tr.Generation != gen {
		t.Errorf("in-flight triple = %+v", tr)
	}

	release()
	tr, err := r.WaitUntilResolved(waitCtx(t))
	if err != nil || !tr.Resolved || tr.Profile == nil {
		t.Errorf("after release triple = %+v, err = %v", tr, err)
	}
}

func TestResolver_StaleFetchIsDiscarded(t *testing.T) {
	l := newGatedLoader()
	l.profiles["u1"] = &models.Profile{ID: "u1", Role: models.RoleAdmin}
	l.profiles["u2"] = &models.Profile{ID: "u2", Role: models.RoleParticipant}
	releaseU1, u1Returned := l.holdFetch("u1")

	r := session.NewResolver(l, time.Second, zap.NewNop())
	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))
	r.OnIdentityChanged(ident("u2", "u2@campus.edu"))

	tr, err := r.WaitUntilResolved(waitCtx(t))
	if err != nil {
		t.Fatalf("WaitUntilResolved: %v", err)
	}
	if tr.Identity.ID != "u2" || tr.Profile == nil || tr.Profile.ID != "u2" {
		t.Fatalf("resolved triple = %+v", tr)
	}

	ch, unsubscribe := r.Subscribe()
	defer unsubscribe()
	<-ch // current state

	releaseU1()
	<-u1Returned

	select {
	case got := <-ch:
		t.Fatalf("stale fetch published %+v", got)
	case <-time.After(50 * time.Millisecond):
	}

	final := r.Current()
	if final.Identity.ID != "u2" || final.Profile.ID != "u2" || final.Profile.Role != models.RoleParticipant {
		t.Errorf("stale fetch overwrote triple: %+v", final)
	}
}

func TestResolver_WaitSuperseded(t *testing.T) {
	l := newGatedLoader()
	release, _ := l.holdFetch("u1")
	defer release()

	r := session.NewResolver(l, time.Second, zap.NewNop())
	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))

	errCh := make(chan error, 1)
	go func() {
		_, err := r.WaitUntilResolved(waitCtx(t))
		errCh <- err
	}()

	// Give the waiter a moment to park on the first generation.
	time.Sleep(20 * time.Millisecond)
	r.OnIdentityChanged(nil)

	select {
	case err := <-errCh:
		if !errors.Is(err, session.ErrSuperseded) {
			t.Errorf("err = %v, want ErrSuperseded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestResolver_WaitHonorsContext(t *testing.T) {
	l := newGatedLoader()
	release, _ := l.holdFetch("u1")
	defer release()

	r := session.NewResolver(l, time.Second, zap.NewNop())
	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.WaitUntilResolved(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestResolver_SubscribeSeesStartAndResolution(t *testing.T) {
	l := newGatedLoader()
	l.profiles["u1"] = &models.Profile{ID: "u1"}
	release, _ := l.holdFetch("u1")

	r := session.NewResolver(l, time.Second, zap.NewNop())
	ch, unsubscribe := r.Subscribe()
	defer unsubscribe()

	if first := <-ch; !first.Resolved || first.Identity != nil {
		t.Fatalf("first value = %+v", first)
	}

	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))
	if started := <-ch; started.Resolved || started.IdentityID() != "u1" {
		t.Fatalf("start value = %+v", started)
	}

	release()
	select {
	case resolved := <-ch:
		if !resolved.Resolved || resolved.Profile == nil {
			t.Errorf("resolution value = %+v", resolved)
		}
	case <-time.After(time.Second):
		t.Fatal("resolution not published")
	}
}

func TestResolver_Close(t *testing.T) {
	l := newGatedLoader()
	release, _ := l.holdFetch("u1")
	defer release()

	r := session.NewResolver(l, time.Second, zap.NewNop())
	ch, _ := r.Subscribe()
	<-ch
	r.OnIdentityChanged(ident("u1", "u1@campus.edu"))

	errCh := make(chan error, 1)
	go func() {
		_, err := r.WaitUntilResolved(waitCtx(t))
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	r.Close()

	if err := <-errCh; !errors.Is(err, session.ErrClosed) {
		t.Errorf("waiter err = %v, want ErrClosed", err)
	}
	for range ch {
		// drain until closed
	}
	if _, err := r.WaitUntilResolved(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("wait after close err = %v, want ErrClosed", err)
	}
}
