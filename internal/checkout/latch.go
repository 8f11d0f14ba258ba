package checkout

import (
	"sync"
	"time"
)

const (
	triggerImmediate   = "immediate"
	triggerPrinted     = "printed"
	triggerFallback    = "fallback"
	triggerPrintFailed = "print_failed"
)

type stopper interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, fn func()) stopper {
	return time.AfterFunc(d, fn)
}

// cleanupLatch runs its action once for whichever trigger fires first. The
// fallback timer is stopped when another trigger wins.
type cleanupLatch struct {
	once   sync.Once
	done   chan struct{}
	action func(trigger string)

	mu    sync.Mutex
	fired bool
	timer stopper
}

func newCleanupLatch(action func(trigger string)) *cleanupLatch {
	return &cleanupLatch{done: make(chan struct{}), action: action}
}

func (l *cleanupLatch) arm(t stopper) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fired {
		t.Stop()
		return
	}
	l.timer = t
}

func (l *cleanupLatch) fire(trigger string) {
	l.once.Do(func() {
		l.mu.Lock()
		l.fired = true
		t := l.timer
		l.mu.Unlock()
		if t != nil {
			t.Stop()
		}
		l.action(trigger)
		close(l.done)
	})
}

func (l *cleanupLatch) Done() <-chan struct{} {
	return l.done
}
