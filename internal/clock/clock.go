// Package clock abstracts time so the loader timers can be driven by the
// runtime in production and advanced by hand in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer, returns false if it already fired or was stopped.
	Stop() bool
}

// Clock is the time source used by the loader components.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine (or the advancing goroutine for
	// fake clocks) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns the system clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Every calls f every d until the returned timer is stopped. The next tick is
// armed before f runs, so f can stop its own timer.
func Every(c Clock, d time.Duration, f func()) Timer {
	r := &repeater{clock: c, interval: d, f: f}

	r.mu.Lock()
	r.timer = c.AfterFunc(d, r.fire)
	r.mu.Unlock()

	return r
}

type repeater struct {
	clock    Clock
	interval time.Duration
	f        func()

	mu      sync.Mutex
	timer   Timer
	stopped bool
}

func (r *repeater) fire() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.timer = r.clock.AfterFunc(r.interval, r.fire)
	r.mu.Unlock()

	r.f()
}

func (r *repeater) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	r.stopped = true
	r.timer.Stop()

	return true
}
