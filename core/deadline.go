package interview

import (
	"sync"
	"sync/atomic"
	"time"
)

// deadlineTimer counts down to an absolute server deadline. Remaining time is
// recomputed from `deadline − now` on every tick so the countdown stays
// honest across reveal boundaries and client clock drift; expiry fires at
// most once per arm. Rearming disarms any previous countdown first.
type deadlineTimer struct {
	mu   sync.Mutex
	stop chan struct{}

	interval time.Duration
	now      func() time.Time

	remaining atomic.Int64
}

func newDeadlineTimer(now func() time.Time, interval time.Duration) *deadlineTimer {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &deadlineTimer{now: now, interval: interval}
}

func (t *deadlineTimer) arm(deadline time.Time, onTick func(secondsRemaining int), onExpire func()) {
	t.mu.Lock()
	t.disarmLocked()
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(deadline, stop, onTick, onExpire)
}

// disarm cancels the countdown. Safe to call repeatedly and after expiry.
func (t *deadlineTimer) disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

func (t *deadlineTimer) disarmLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *deadlineTimer) secondsRemaining() int {
	return int(t.remaining.Load())
}

func (t *deadlineTimer) run(deadline time.Time, stop chan struct{}, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		remaining := max(0, int(deadline.Sub(t.now())/time.Second))
		t.remaining.Store(int64(remaining))

		// A disarm that raced the tick wins: no further notifications.
		select {
		case <-stop:
			return
		default:
		}

		if onTick != nil {
			onTick(remaining)
		}

		if remaining <= 0 {
			if onExpire != nil {
				onExpire()
			}
			return
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
