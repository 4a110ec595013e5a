package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/domaudit/internal/progress"
)

func TestSequencerTicks(t *testing.T) {
	tests := map[string]struct {
		length   int
		ticks    int
		expIndex int
	}{
		"No ticks should stay at the first stage": {
			length:   9,
			ticks:    0,
			expIndex: 0,
		},
		"Ticks below the length should advance one per tick": {
			length:   9,
			ticks:    4,
			expIndex: 4,
		},
		"Ticks past the length should park at the last stage": {
			length:   9,
			ticks:    50,
			expIndex: 8,
		},
		"A single stage should never move": {
			length:   1,
			ticks:    3,
			expIndex: 0,
		},
		"An invalid length should behave as a single stage": {
			length:   0,
			ticks:    3,
			expIndex: 0,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := progress.NewSequencer(test.length)
			for range test.ticks {
				s.Tick()
			}

			assert.Equal(t, test.expIndex, s.Index())
		})
	}
}

func TestSequencerIndexIsMinOfTicksAndLast(t *testing.T) {
	for length := 1; length <= 12; length++ {
		for k := 0; k <= 20; k++ {
			s := progress.NewSequencer(length)
			for range k {
				s.Tick()
			}
			assert.Equal(t, min(k, length-1), s.Index(), "length=%d ticks=%d", length, k)
		}
	}
}

func TestSequencerTickReportsMovement(t *testing.T) {
	s := progress.NewSequencer(2)

	idx, moved := s.Tick()
	assert.Equal(t, 1, idx)
	assert.True(t, moved)

	idx, moved = s.Tick()
	assert.Equal(t, 1, idx)
	assert.False(t, moved)
}

func TestSequencerComplete(t *testing.T) {
	s := progress.NewSequencer(9)
	s.Tick()

	assert.Equal(t, 8, s.Complete())
	assert.Equal(t, 9, s.Len())
}

func TestMeter(t *testing.T) {
	tests := map[string]struct {
		step     int
		ceiling  int
		ticks    int
		expValue int
	}{
		"Four ticks should reach 40": {
			step:     10,
			ceiling:  90,
			ticks:    4,
			expValue: 40,
		},
		"Many ticks should be capped at the ceiling": {
			step:     10,
			ceiling:  90,
			ticks:    50,
			expValue: 90,
		},
		"A step not dividing the ceiling should still cap": {
			step:     7,
			ceiling:  90,
			ticks:    14,
			expValue: 90,
		},
		"A ceiling above 100 should be clamped": {
			step:     60,
			ceiling:  150,
			ticks:    3,
			expValue: 100,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := progress.NewMeter(test.step, test.ceiling)
			for range test.ticks {
				m.Tick()
			}

			assert.Equal(t, test.expValue, m.Value())
		})
	}
}

func TestMeterIsNonDecreasingAndCapped(t *testing.T) {
	m := progress.NewMeter(10, 90)

	prev := m.Value()
	for range 30 {
		v := m.Tick()
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 90)
		prev = v
	}

	assert.Equal(t, 100, m.Complete())
}
