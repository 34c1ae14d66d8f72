// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IdleEvicter drops session resolvers that have not been touched recently.
// *session.Registry satisfies it.
type IdleEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

// ExpiredCleaner removes expired rows. *oauthstate.Store satisfies it.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SessionCleanup is a background worker that evicts idle session resolvers
// and sweeps expired OAuth state tokens.
type SessionCleanup struct {
	registry          IdleEvicter
	states            ExpiredCleaner
	log               *zap.Logger
	interval          time.Duration
	inactiveThreshold time.Duration
	stopCh            chan struct{}
	stopOnce          sync.Once
	wg                sync.WaitGroup
}

// NewSessionCleanup creates a new session cleanup worker.
//
// Parameters:
//   - registry: the resolver registry
//   - states: OAuth state store; may be nil
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 1 minute)
//   - inactiveThreshold: how long a resolver must be idle before eviction (e.g., 30 minutes)
func NewSessionCleanup(registry IdleEvicter, states ExpiredCleaner, logger *zap.Logger, interval, inactiveThreshold time.Duration) *SessionCleanup {
	return &SessionCleanup{
		registry:          registry,
		states:            states,
		log:               logger,
		interval:          interval,
		inactiveThreshold: inactiveThreshold,
		stopCh:            make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("inactive_threshold", w.inactiveThreshold))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single sweep.
func (w *SessionCleanup) RunOnce() {
	if n := w.registry.EvictIdle(w.inactiveThreshold); n > 0 {
		w.log.Info("evicted idle sessions", zap.Int("count", n))
	}

	if w.states == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to remove expired oauth states", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("removed expired oauth states", zap.Int64("count", count))
	}
}
