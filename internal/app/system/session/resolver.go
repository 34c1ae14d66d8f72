package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrSuperseded is returned to a waiter whose generation was replaced
	// by a newer identity change before it resolved.
	ErrSuperseded = errors.New("session: generation superseded")
	// ErrClosed is returned once the resolver has been dropped.
	ErrClosed = errors.New("session: resolver closed")
)

// ProfileLoader loads the profile for an identity. It returns (nil, nil)
// when no profile exists.
type ProfileLoader interface {
	Find(ctx context.Context, identityID string) (*models.Profile, error)
}

type generation struct {
	id       uint64
	done     chan struct{}
	cancel   context.CancelFunc
	finished bool
}

func (g *generation) finish() {
	if !g.finished {
		g.finished = true
		close(g.done)
	}
}

// Resolver owns the triple for one session.
type Resolver struct {
	loader       ProfileLoader
	log          *zap.Logger
	fetchTimeout time.Duration

	mu     sync.Mutex
	state  Triple
	gen    *generation
	seq    uint64
	closed bool
	subs   map[int]chan Triple
	nextID int

	lastActive atomic.Int64
}

// NewResolver returns a resolver in the resolved, signed-out state.
func NewResolver(loader ProfileLoader, fetchTimeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	g := &generation{done: make(chan struct{}), cancel: func() {}}
	g.finish()
	r := &Resolver{
		loader:       loader,
		log:          logger,
		fetchTimeout: fetchTimeout,
		state:        Triple{Resolved: true},
		gen:          g,
		subs:         make(map[int]chan Triple),
	}
	r.touch()
	return r
}

// OnIdentityChanged starts a new generation for id (nil means signed out).
// The previous generation's fetch is cancelled and its waiters receive
// ErrSuperseded. It returns the new generation number.
func (r *Resolver) OnIdentityChanged(id *models.Identity) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.state.Generation
	}
	r.touch()

	r.gen.cancel()
	r.gen.finish()

	r.seq++
	g := &generation{id: r.seq, done: make(chan struct{}), cancel: func() {}}
	r.gen = g
	r.state = Triple{Identity: id, Generation: g.id}

	if id == nil {
		r.state.Resolved = true
		g.finish()
		r.publishLocked()
		return g.id
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.fetchTimeout)
	g.cancel = cancel
	r.publishLocked()
	go r.fetch(ctx, g, id.ID)
	return g.id
}

func (r *Resolver) fetch(ctx context.Context, g *generation, identityID string) {
	p, err := r.loader.Find(ctx, identityID)
	g.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gen != g {
		r.log.Debug("discarding stale profile fetch",
			zap.String("identity_id", identityID),
			zap.Uint64("generation", g.id))
		return
	}
	if err != nil {
		r.log.Warn("profile fetch failed; session resolved without profile",
			zap.String("identity_id", identityID),
			zap.Uint64("generation", g.id),
			zap.Error(err))
		p = nil
	}
	r.state.Profile = p
	r.state.FetchErr = err
	r.state.Resolved = true
	g.finish()
	r.publishLocked()
}

// WaitUntilResolved blocks until the current generation resolves and
// returns its triple. If another identity change supersedes the generation
// first, it returns ErrSuperseded; the caller may wait again for the new one.
func (r *Resolver) WaitUntilResolved(ctx context.Context) (Triple, error) {
	r.touch()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Triple{}, ErrClosed
	}
	if r.state.Resolved {
		t := r.state
		r.mu.Unlock()
		return t, nil
	}
	g := r.gen
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return Triple{}, ctx.Err()
	case <-g.done:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return Triple{}, ErrClosed
	case r.gen != g:
		return Triple{}, ErrSuperseded
	default:
		return r.state, nil
	}
}

// Current returns the latest snapshot without waiting.
func (r *Resolver) Current() Triple {
	r.touch()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe returns a channel carrying every generation start and
// resolution, beginning with the current state. A slow reader only ever
// sees the latest value. The returned func unsubscribes and closes the
// channel.
func (r *Resolver) Subscribe() (<-chan Triple, func()) {
	ch := make(chan Triple, 1)
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	ch <- r.state
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(ch)
			}
		})
	}
}

// publishLocked delivers r.state to every subscriber, replacing any value
// the subscriber has not read yet. Callers hold r.mu.
func (r *Resolver) publishLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- r.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- r.state
		}
	}
}

// Close cancels any in-flight fetch, fails pending waits with ErrClosed
// and closes every subscription.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.gen.cancel()
	r.gen.finish()
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// LastActive returns when the resolver was last read or changed.
func (r *Resolver) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Resolver) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}
