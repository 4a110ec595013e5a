package loader

import (
	"time"

	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/walker"
)

// Phase is the controller state.
type Phase string

const (
	// PhaseIdle means there is no active run. The last finished run (if any) is
	// still available in the view.
	PhaseIdle Phase = "idle"
	// PhasePending means the remote audit is outstanding and the simulation runs.
	PhasePending Phase = "pending"
	// PhaseSucceeding is the grace hold showing the terminal visuals before the reveal.
	PhaseSucceeding Phase = "succeeding"
)

// View is a read-only snapshot of the controller for rendering.
type View struct {
	// Version increases with every snapshot. Callbacks run outside the controller
	// lock and can be delivered out of order, consumers keep the highest version.
	Version uint64
	Phase   Phase
	// Run is a copy of the current or last finished run, nil after a reset.
	Run        *model.OperationRun
	Stages     model.StageCatalog
	StageIndex int
	Progress   int
	Character  walker.State
	// Slow is true when a pending run exceeded the slow threshold.
	Slow    bool
	Elapsed time.Duration
}

// Stage returns the current stage.
func (v View) Stage() model.Stage { return v.Stages[v.StageIndex] }

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewLocked(c.cfg.Clock.Now())
}

// Stages returns the stage catalog.
func (c *Controller) Stages() model.StageCatalog { return c.cfg.Stages.Copy() }

// viewLocked must be called with the lock held.
func (c *Controller) viewLocked(now time.Time) View {
	c.version++
	v := View{
		Version:   c.version,
		Phase:     c.phase,
		Stages:    c.cfg.Stages.Copy(),
		Character: c.walker.State(now),
	}

	if c.run != nil {
		run := *c.run
		v.Run = &run
		v.StageIndex = run.CurrentStageIndex
		v.Progress = run.SimulatedProgress
		v.Elapsed = now.Sub(run.StartedAt)
	}
	if c.active != nil {
		v.Slow = c.active.slow
	}

	return v
}
