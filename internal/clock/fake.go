package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock. Timers fire synchronously, in deadline
// order, from the goroutine calling Advance.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

// NewFake returns a fake clock set at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the current fake time.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc schedules f to be called when the clock is advanced past d.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f, seq: c.seq}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the clock forward by d firing every timer that becomes due,
// including timers armed by the callbacks themselves.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.popDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of armed timers.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

// popDue removes and returns the earliest timer due at or before target, nil if none.
// Must be called with the lock held.
func (c *Fake) popDue(target time.Time) *fakeTimer {
	idx := -1
	for i, t := range c.timers {
		if t.at.After(target) {
			continue
		}
		if idx == -1 || t.at.Before(c.timers[idx].at) || (t.at.Equal(c.timers[idx].at) && t.seq < c.timers[idx].seq) {
			idx = i
		}
	}
	if idx == -1 {
		return nil
	}

	t := c.timers[idx]
	c.timers = append(c.timers[:idx], c.timers[idx+1:]...)
	t.done = true

	return t
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	f     func()
	seq   int
	done  bool
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, ct := range c.timers {
		if ct == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}

	return true
}
