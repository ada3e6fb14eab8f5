package wizard

import (
	"sync"
	"time"
)

// DefaultAutosaveDelay is the idle period before the teaching form saves
// itself.
const DefaultAutosaveDelay = 3 * time.Second

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests swap in a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs fn once the triggers stop for delay. Every Trigger
// restarts the wait. A fire that lost a race with Trigger or Cancel is
// dropped.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	after  AfterFunc
	fn     func()
	timer  Timer
	gen    uint64
	closed bool
}

func NewDebouncer(delay time.Duration, after AfterFunc, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if after == nil {
		after = realAfterFunc
	}
	return &Debouncer{delay: delay, after: after, fn: fn}
}

// Trigger (re)starts the wait.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending run and reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	return d.stopLocked()
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Close cancels any pending run; later triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.stopLocked()
	d.closed = true
}

func (d *Debouncer) stopLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.closed {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}
