package model

import (
	"fmt"
)

// Stage is one named step of the simulated audit phases.
type Stage struct {
	Index int
	ID    string
	Label string
	// Position is the horizontal position of the stage in the [0,100] range.
	Position float64
}

// StageCatalog is the ordered, fixed list of stages used by a loader.
type StageCatalog []Stage

// Validate validates the stage catalog.
func (c StageCatalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("at least one stage is required: %w", ErrNotValid)
	}

	ids := make(map[string]struct{}, len(c))
	for i, s := range c {
		if s.Index != i {
			return fmt.Errorf("stage %q has index %d, expected %d: %w", s.ID, s.Index, i, ErrNotValid)
		}
		if s.ID == "" {
			return fmt.Errorf("stage %d id is required: %w", i, ErrNotValid)
		}
		if _, ok := ids[s.ID]; ok {
			return fmt.Errorf("stage id %q is duplicated: %w", s.ID, ErrNotValid)
		}
		ids[s.ID] = struct{}{}

		if s.Label == "" {
			return fmt.Errorf("stage %q label is required: %w", s.ID, ErrNotValid)
		}
		if s.Position < 0 || s.Position > 100 {
			return fmt.Errorf("stage %q position %.2f must be in [0,100]: %w", s.ID, s.Position, ErrNotValid)
		}
	}

	return nil
}

// Copy returns a copy of the catalog so callers can't mutate shared stages.
func (c StageCatalog) Copy() StageCatalog {
	cp := make(StageCatalog, len(c))
	copy(cp, c)
	return cp
}

var defaultStages = StageCatalog{
	{ID: "init", Label: "Initializing domain analysis..."},
	{ID: "registration", Label: "Checking domain registration..."},
	{ID: "hosting", Label: "Scanning hosting information..."},
	{ID: "email", Label: "Analyzing email configuration..."},
	{ID: "tech", Label: "Detecting technology stack..."},
	{ID: "wordpress", Label: "Checking for WordPress..."},
	{ID: "ads", Label: "Scanning for advertisements..."},
	{ID: "security", Label: "Auditing security headers..."},
	{ID: "report", Label: "Compiling final report..."},
}

// DefaultStages returns the built-in stage catalog.
func DefaultStages() StageCatalog {
	return Spread(defaultStages)
}

// Spread returns a copy of the stages with indexes set in order and positions
// evenly spaced from 5 to 95.
func Spread(stages StageCatalog) StageCatalog {
	const minPos, maxPos = 5.0, 95.0

	res := stages.Copy()
	for i := range res {
		res[i].Index = i
		if len(res) == 1 {
			res[i].Position = minPos
			continue
		}
		res[i].Position = minPos + float64(i)*(maxPos-minPos)/float64(len(res)-1)
	}

	return res
}
