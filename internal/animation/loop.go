// Package animation runs the per frame render loop. It's independent of the
// loader tick cadence and only knows about frame subscribers.
package animation

import (
	"fmt"
	"sync"
	"time"

	"github.com/slok/domaudit/internal/clock"
	"github.com/slok/domaudit/internal/log"
)

// Frame is the information passed to every subscriber on each frame.
type Frame struct {
	Number uint64
	Now    time.Time
	// Delta is the time since the previous frame, zero on the first one.
	Delta time.Duration
}

// FrameFunc is called once per frame. Returning an error skips the subscriber
// work for that frame only.
type FrameFunc func(f Frame) error

// LoopConfig is the configuration of the frame loop.
type LoopConfig struct {
	Clock  clock.Clock
	FPS    int
	Logger log.Logger
}

func (c *LoopConfig) defaults() error {
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.FPS == 0 {
		c.FPS = 30
	}
	if c.FPS < 0 || c.FPS > 240 {
		return fmt.Errorf("fps must be in (0,240]")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "animation.Loop"})
	return nil
}

type subscription struct {
	id   uint64
	name string
	f    FrameFunc
}

// Loop is a cancellable frame loop.
type Loop struct {
	clock    clock.Clock
	interval time.Duration
	logger   log.Logger

	mu      sync.Mutex
	subs    []subscription
	nextID  uint64
	ticker  clock.Timer
	running bool
	number  uint64
	last    time.Time
}

// NewLoop returns a stopped frame loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Loop{
		clock:    cfg.Clock,
		interval: time.Second / time.Duration(cfg.FPS),
		logger:   cfg.Logger,
	}, nil
}

// Interval returns the time between frames.
func (l *Loop) Interval() time.Duration { return l.interval }

// Subscribe registers f to be called on every frame. The returned func releases
// the subscription, it can be called more than once.
func (l *Loop) Subscribe(name string, f FrameFunc) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscription{id: id, name: name, f: f})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (l *Loop) Subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.subs)
}

// Start starts the loop, it's a no-op if already running.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}
	l.running = true
	l.last = time.Time{}
	l.ticker = clock.Every(l.clock, l.interval, l.frame)
	l.logger.Debugf("Frame loop started at %s per frame", l.interval)
}

// Stop stops the loop, no frame starts after Stop returns. It's idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	l.running = false
	l.ticker.Stop()
	l.logger.Debugf("Frame loop stopped after %d frames", l.number)
}

// Running returns true while the loop is producing frames.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.running
}

// Frames returns the number of frames run so far.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.number
}

func (l *Loop) frame() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	now := l.clock.Now()
	l.number++
	fr := Frame{Number: l.number, Now: now}
	if !l.last.IsZero() {
		fr.Delta = now.Sub(l.last)
	}
	l.last = now
	subs := make([]subscription, len(l.subs))
	copy(subs, l.subs)
	l.mu.Unlock()

	for _, s := range subs {
		if err := l.run(s, fr); err != nil {
			l.logger.Debugf("Frame %d skipped for %q: %s", fr.Number, s.name, err)
		}
	}
}

func (l *Loop) run(s subscription, fr Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return s.f(fr)
}
