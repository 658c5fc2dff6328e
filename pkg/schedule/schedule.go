// Package schedule provides the two scheduling primitives the attendance
// core needs: a cancellable one-shot timer keyed by ID, and a recurring
// loop tied to a context. Timers are best-effort; the recurring sweep is
// the correctness backstop for anything a dropped timer misses.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned when arming a timer after Shutdown.
var ErrClosed = errors.New("schedule: timer registry closed")

// Timers holds addressable one-shot timers so a manual checkout can
// cancel the pending auto-expiry for its session.
type Timers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewTimers() *Timers {
	return &Timers{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn to run once at the given absolute time. Arming a key
// that already has a pending timer replaces it. If at is in the past the
// timer fires immediately.
func (t *Timers) Arm(key string, at time.Time, fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if old, ok := t.timers[key]; ok {
		old.Stop()
	}
	t.timers[key] = time.AfterFunc(time.Until(at), func() {
		t.remove(key)
		fn()
	})
	return nil
}

// Cancel stops the pending timer for key, if any.
func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Len reports the number of pending timers.
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// Shutdown stops all pending timers and rejects further arming.
func (t *Timers) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *Timers) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, key)
}

// Every runs fn on a fixed interval until ctx is cancelled. The first run
// happens one interval after the call, not immediately.
func Every(ctx context.Context, interval time.Duration, name string, logger *slog.Logger, fn func(context.Context)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("sweep stopped", "sweep", name)
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}
