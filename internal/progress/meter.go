package progress

const completed = 100

// Meter is a non-decreasing percentage that advances a fixed step per tick and
// stays below a ceiling until Complete is called.
type Meter struct {
	step    int
	ceiling int
	value   int
}

// NewMeter returns a meter. Step must be positive and ceiling is clamped to [0,100].
func NewMeter(step, ceiling int) *Meter {
	if step < 1 {
		step = 1
	}
	ceiling = max(0, min(ceiling, completed))
	return &Meter{step: step, ceiling: ceiling}
}

// Tick adds one step capped by the ceiling and returns the new value.
func (m *Meter) Tick() int {
	m.value = max(m.value, min(m.value+m.step, m.ceiling))
	return m.value
}

// Complete sets the meter to 100.
func (m *Meter) Complete() int {
	m.value = completed
	return m.value
}

// Value returns the current percentage.
func (m *Meter) Value() int { return m.value }
