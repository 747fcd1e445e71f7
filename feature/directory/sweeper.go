package directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the recent-player expiry sweep: a fixed-interval background task
// that demotes players out of the recent view once the configured threshold
// has elapsed since their registration.
//
// A tick that arrives while the previous tick's work is still in flight is
// skipped rather than run concurrently with itself. Concurrent registration
// and removal of entries during a sweep is tolerated; an id removed during
// iteration is simply absent from the remaining iteration.
type Sweeper struct {
	svc      *Service
	expiry   sync.Map // player id -> registration time
	inFlight atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSweeper(svc *Service) *Sweeper {
	return &Sweeper{
		svc:  svc,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// registerExpiry records when a player transitioned into "recent".
func (s *Service) registerExpiry(playerID int, at time.Time) {
	s.sweeper.expiry.Store(playerID, at)
}

// removeExpiry drops a pending expiry registration, if any.
func (s *Service) removeExpiry(playerID int) {
	s.sweeper.expiry.Delete(playerID)
}

// Start launches the sweep loop on its own goroutine.
func (w *Sweeper) Start() {
	go w.run()
}

// Stop terminates the sweep loop. Safe to call more than once.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Sweeper) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.svc.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.Tick(context.Background())
		}
	}
}

// Tick performs one sweep. Exported so tests and maintenance commands can
// drive the sweep without the timer.
func (w *Sweeper) Tick(ctx context.Context) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer w.inFlight.Store(false)

	cutoff := w.svc.clock.Now().Add(-w.svc.cfg.RecentThreshold())

	w.expiry.Range(func(key, value any) bool {
		if value.(time.Time).After(cutoff) {
			return true
		}
		w.expire(ctx, key.(int), cutoff)
		return true
	})
}

// expire clears one pending entry and demotes the player out of the recent
// view. LoadAndDelete guards against double-processing when a sweep races a
// re-registration, and the loaded timestamp is checked against the cutoff
// again: a registration stored after the sweep read the entry wins, so the
// fresh timestamp is put back and the player stays recent.
func (w *Sweeper) expire(ctx context.Context, playerID int, cutoff time.Time) {
	value, loaded := w.expiry.LoadAndDelete(playerID)
	if !loaded {
		return
	}
	if registered := value.(time.Time); registered.After(cutoff) {
		w.expiry.Store(playerID, registered)
		return
	}

	p, ok := w.svc.GetByID(playerID)
	if !ok {
		return
	}
	p.IsRecent = false
	if err := w.svc.Update(ctx, p); err != nil && !errors.Is(err, ErrNotFound) {
		w.svc.logger.Warn("Failed to demote recent player",
			zap.Int("player_id", playerID), zap.Error(err))
	}
}
