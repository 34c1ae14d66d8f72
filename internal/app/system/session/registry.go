package session

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// IdentityLookup loads an identity by id.
type IdentityLookup interface {
	Get(ctx context.Context, id string) (*models.Identity, error)
}

// Registry maps browser session ids to their resolvers.
type Registry struct {
	profiles     ProfileLoader
	identities   IdentityLookup
	fetchTimeout time.Duration
	log          *zap.Logger

	mu    sync.Mutex
	bySID map[string]*Resolver
}

// NewRegistry returns an empty registry. fetchTimeout bounds each profile
// load.
func NewRegistry(profiles ProfileLoader, identities IdentityLookup, fetchTimeout time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		profiles:     profiles,
		identities:   identities,
		fetchTimeout: fetchTimeout,
		log:          logger,
		bySID:        make(map[string]*Resolver),
	}
}

// Get returns the resolver for sid if one exists.
func (g *Registry) Get(sid string) (*Resolver, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.bySID[sid]
	return r, ok
}

func (g *Registry) getOrCreate(sid string) (*Resolver, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.bySID[sid]; ok {
		return r, false
	}
	r := NewResolver(g.profiles, g.fetchTimeout, g.log.With(zap.String("sid", sid)))
	g.bySID[sid] = r
	return r, true
}

// Ensure returns the resolver for sid, bringing it in line with the
// identity id carried by the session cookie. A resolver already tracking
// identityID is returned untouched. Otherwise the identity is loaded and a
// new generation started; a failed lookup starts a signed-out generation,
// so the next request retries.
func (g *Registry) Ensure(ctx context.Context, sid, identityID string) *Resolver {
	r, created := g.getOrCreate(sid)
	if r.Current().IdentityID() == identityID {
		return r
	}
	if identityID == "" {
		if !created {
			r.OnIdentityChanged(nil)
		}
		return r
	}

	id, err := g.identities.Get(ctx, identityID)
	if err != nil {
		g.log.Warn("session identity lookup failed",
			zap.String("identity_id", identityID),
			zap.Error(err))
		r.OnIdentityChanged(nil)
		return r
	}
	r.OnIdentityChanged(id)
	return r
}

// SetIdentity starts a new generation for sid with id (nil signs out),
// creating the resolver if needed.
func (g *Registry) SetIdentity(sid string, id *models.Identity) *Resolver {
	r, _ := g.getOrCreate(sid)
	r.OnIdentityChanged(id)
	return r
}

// RefreshIdentity re-resolves every session currently signed in as
// identityID, so a role change takes effect without a new sign-in.
// It returns the number of sessions refreshed.
func (g *Registry) RefreshIdentity(identityID string) int {
	g.mu.Lock()
	var targets []*Resolver
	for _, r := range g.bySID {
		if r.Current().IdentityID() == identityID {
			targets = append(targets, r)
		}
	}
	g.mu.Unlock()

	for _, r := range targets {
		r.OnIdentityChanged(r.Current().Identity)
	}
	return len(targets)
}

// Drop closes and forgets the resolver for sid.
func (g *Registry) Drop(sid string) {
	g.mu.Lock()
	r, ok := g.bySID[sid]
	delete(g.bySID, sid)
	g.mu.Unlock()
	if ok {
		r.Close()
	}
}

// EvictIdle drops every resolver not used for longer than maxIdle and
// returns how many were dropped.
func (g *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	g.mu.Lock()
	var stale []*Resolver
	for sid, r := range g.bySID {
		if r.LastActive().Before(cutoff) {
			stale = append(stale, r)
			delete(g.bySID, sid)
		}
	}
	g.mu.Unlock()

	for _, r := range stale {
		r.Close()
	}
	return len(stale)
}

// Len returns the number of live resolvers.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.bySID)
}

// CloseAll closes every resolver. Used at shutdown.
func (g *Registry) CloseAll() {
	g.mu.Lock()
	all := g.bySID
	g.bySID = make(map[string]*Resolver)
	g.mu.Unlock()
	for _, r := range all {
		r.Close()
	}
}
