// Package progress has the simulated phase sequencer and progress meter. Both
// are plain state holders, the loader decides when they tick.
package progress

// Sequencer walks an ordered, fixed number of stages one tick at a time.
// It never goes past the last stage on its own.
type Sequencer struct {
	length int
	index  int
}

// NewSequencer returns a sequencer for length stages, length is forced to at least 1.
func NewSequencer(length int) *Sequencer {
	if length < 1 {
		length = 1
	}
	return &Sequencer{length: length}
}

// Tick advances one stage. moved is false when the sequencer was already parked
// on the last stage.
func (s *Sequencer) Tick() (index int, moved bool) {
	if s.index >= s.length-1 {
		return s.index, false
	}
	s.index++
	return s.index, true
}

// Complete jumps to the last stage.
func (s *Sequencer) Complete() int {
	s.index = s.length - 1
	return s.index
}

// Index returns the current stage index.
func (s *Sequencer) Index() int { return s.index }

// Len returns the number of stages.
func (s *Sequencer) Len() int { return s.length }
