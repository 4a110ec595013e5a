// Package particle has the background particle field shown behind the loader.
//
// The field is a fixed pool of points moving at constant velocity on a toroidal
// surface: a point leaving one edge re-enters through the opposite one.
package particle

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/slok/domaudit/internal/model"
)

// Particle is a single point of the field.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Radius float64
}

// FieldConfig is the configuration of a particle field.
type FieldConfig struct {
	// Count is the pool size, defaults to 50.
	Count int
	// Width and Height are the surface bounds.
	Width  float64
	Height float64
	// MaxSpeed is the maximum absolute velocity per axis in units per frame.
	MaxSpeed float64
	// MinRadius and MaxRadius bound the random radius of each particle.
	MinRadius float64
	MaxRadius float64
	// Rand is the random source used to place the particles.
	Rand *rand.Rand
}

func (c *FieldConfig) defaults() error {
	if c.Count == 0 {
		c.Count = 50
	}
	if c.Count < 0 {
		return fmt.Errorf("count can't be negative: %w", model.ErrNotValid)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("bounds must be positive: %w", model.ErrNotValid)
	}
	if c.MaxSpeed == 0 {
		c.MaxSpeed = 0.5
	}
	if c.MinRadius == 0 {
		c.MinRadius = 0.5
	}
	if c.MaxRadius == 0 {
		c.MaxRadius = 2
	}
	if c.MaxRadius < c.MinRadius {
		return fmt.Errorf("max radius is lower than min radius: %w", model.ErrNotValid)
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return nil
}

// Field is the particle pool and its surface bounds. It's safe for concurrent
// use, the frame loop steps it while terminal events resize it.
type Field struct {
	mu        sync.Mutex
	particles []Particle
	width     float64
	height    float64
}

// NewField creates the particle pool once, particles are never added or removed afterwards.
func NewField(cfg FieldConfig) (*Field, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ps := make([]Particle, cfg.Count)
	for i := range ps {
		ps[i] = Particle{
			X:      cfg.Rand.Float64() * cfg.Width,
			Y:      cfg.Rand.Float64() * cfg.Height,
			VX:     (cfg.Rand.Float64()*2 - 1) * cfg.MaxSpeed,
			VY:     (cfg.Rand.Float64()*2 - 1) * cfg.MaxSpeed,
			Radius: cfg.MinRadius + cfg.Rand.Float64()*(cfg.MaxRadius-cfg.MinRadius),
		}
	}

	return NewFieldFromParticles(ps, cfg.Width, cfg.Height)
}

// NewFieldFromParticles creates a field with a known pool.
func NewFieldFromParticles(ps []Particle, width, height float64) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bounds must be positive: %w", model.ErrNotValid)
	}

	pool := make([]Particle, len(ps))
	copy(pool, ps)

	return &Field{particles: pool, width: width, height: height}, nil
}

// Step advances every particle by its velocity scaled by dt (1 is one frame)
// and wraps it into the surface.
func (f *Field) Step(dt float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.particles {
		p := &f.particles[i]
		p.X = wrap(p.X+p.VX*dt, f.width)
		p.Y = wrap(p.Y+p.VY*dt, f.height)
	}
}

// Resize sets new surface bounds. Particles outside them are not clipped, they
// wrap back in on the next step.
func (f *Field) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bounds %.0fx%.0f must be positive: %w", width, height, model.ErrNotValid)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height

	return nil
}

// Bounds returns the surface size.
func (f *Field) Bounds() (width, height float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.width, f.height
}

// Particles returns a copy of the pool.
func (f *Field) Particles() []Particle {
	f.mu.Lock()
	defer f.mu.Unlock()

	ps := make([]Particle, len(f.particles))
	copy(ps, f.particles)

	return ps
}

// wrap maps v into [0, size).
func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	// -tiny + size can round up to size.
	if v >= size {
		v = 0
	}
	return v
}
