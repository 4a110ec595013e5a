// Package walker derives the explorer character state from the current stage.
//
// The walker never owns timers: the loader tells it when the target changes and
// when the pose clock ticks, and asks for the interpolated state at a given time.
package walker

import (
	"sync"
	"time"
)

const (
	// DefaultDuration is the tween duration between two stage positions.
	DefaultDuration = 1800 * time.Millisecond
)

// State is the derived character state.
type State struct {
	// Position is the horizontal position in the [0,100] range.
	Position float64
	// Walking is the current step pose, it alternates on the pose clock.
	Walking bool
	// Moving is true while the character is traveling between two stages.
	Moving bool
}

// Config is the walker configuration.
type Config struct {
	Duration time.Duration
}

func (c *Config) defaults() {
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
}

// Walker is the explorer character.
type Walker struct {
	mu       sync.Mutex
	duration time.Duration
	from     float64
	to       float64
	since    time.Time
	walking  bool
	frozen   bool
}

// New returns a new walker.
func New(cfg Config) *Walker {
	cfg.defaults()
	return &Walker{duration: cfg.Duration}
}

// Place puts the character at pos without tweening, unfreezes it and resets the pose.
func (w *Walker) Place(pos float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.from, w.to = pos, pos
	w.since = time.Time{}
	w.walking = false
	w.frozen = false
}

// SetTarget starts traveling from the current interpolated position to pos.
func (w *Walker) SetTarget(pos float64, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pos == w.to {
		return
	}
	w.from = w.position(now)
	w.to = pos
	w.since = now
}

// TogglePose flips the walking pose, it's a no-op once frozen.
func (w *Walker) TogglePose() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frozen {
		return
	}
	w.walking = !w.walking
}

// Freeze holds the last pose.
func (w *Walker) Freeze() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.frozen = true
}

// State returns the character state at now.
func (w *Walker) State(now time.Time) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		Position: w.position(now),
		Walking:  w.walking,
		Moving:   w.progress(now) < 1,
	}
}

func (w *Walker) position(now time.Time) float64 {
	return w.from + (w.to-w.from)*EaseInOut(w.progress(now))
}

func (w *Walker) progress(now time.Time) float64 {
	if w.since.IsZero() || w.from == w.to {
		return 1
	}
	return float64(now.Sub(w.since)) / float64(w.duration)
}
