package manager

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// guard is a binary, non-queuing gate. acquire never blocks: it either takes
// the gate or fails with ResourceBusyError naming the current holder.
type guard struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	holder string
	since  time.Time
}

func newGuard() *guard {
	return &guard{sem: semaphore.NewWeighted(1)}
}

// acquire takes the gate for op. The returned release func must be deferred.
func (g *guard) acquire(op string) (func(), error) {
	if !g.sem.TryAcquire(1) {
		g.mu.Lock()
		holder := g.holder
		g.mu.Unlock()
		return func() {}, ResourceBusyError{Op: op, Holder: holder}
	}
	g.mu.Lock()
	g.holder, g.since = op, time.Now()
	g.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.holder, g.since = "", time.Time{}
			g.mu.Unlock()
			g.sem.Release(1)
		})
	}, nil
}

// current returns the operation holding the gate, or "" when idle.
func (g *guard) current() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder, g.since
}
