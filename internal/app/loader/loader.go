package loader

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/domaudit/internal/auditor"
	"github.com/slok/domaudit/internal/clock"
	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/progress"
	"github.com/slok/domaudit/internal/walker"
)

// Defaults of the simulated drivers.
const (
	DefaultTickInterval    = 800 * time.Millisecond
	DefaultProgressStep    = 10
	DefaultProgressCeiling = 90
	DefaultGraceHold       = 800 * time.Millisecond
	DefaultPoseInterval    = 500 * time.Millisecond
)

// ControllerConfig is the configuration for the loader controller.
type ControllerConfig struct {
	Auditor auditor.Auditor
	Stages  model.StageCatalog
	Clock   clock.Clock
	Logger  log.Logger

	TickInterval time.Duration
	ProgressStep int
	// ProgressCeiling caps the simulated progress while the audit is pending, it
	// must be in (0,100). 0 uses DefaultProgressCeiling.
	ProgressCeiling int
	GraceHold       time.Duration
	PoseInterval    time.Duration
	WalkDuration    time.Duration
	// SlowAfter marks a pending run as slow after this duration, 0 disables it.
	SlowAfter time.Duration
	// MaxWait fails a pending run after this duration, 0 waits forever.
	MaxWait time.Duration

	// OnReveal is called once per successful run, after the grace hold.
	OnReveal func(result model.AuditResult)
	// OnError is called once per failed run, right away.
	OnError func(reason string)
	// OnReset is called on every Reset.
	OnReset func()
	// OnTick is called on every simulated stage/progress tick.
	OnTick func(stageIndex, progress int)
	// OnChange is called after every state change with the new view.
	OnChange func(v View)
}

func (c *ControllerConfig) defaults() error {
	if c.Auditor == nil {
		return fmt.Errorf("auditor is required")
	}
	if c.Stages == nil {
		c.Stages = model.DefaultStages()
	}
	if err := c.Stages.Validate(); err != nil {
		return fmt.Errorf("invalid stages: %w", err)
	}
	c.Stages = c.Stages.Copy()
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "loader.Controller"})

	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ProgressStep == 0 {
		c.ProgressStep = DefaultProgressStep
	}
	if c.ProgressCeiling == 0 {
		c.ProgressCeiling = DefaultProgressCeiling
	}
	if c.GraceHold == 0 {
		c.GraceHold = DefaultGraceHold
	}
	if c.PoseInterval == 0 {
		c.PoseInterval = DefaultPoseInterval
	}
	if c.TickInterval < 0 || c.GraceHold < 0 || c.PoseInterval < 0 || c.SlowAfter < 0 || c.MaxWait < 0 {
		return fmt.Errorf("durations can't be negative")
	}
	if c.ProgressStep < 0 {
		return fmt.Errorf("progress step can't be negative")
	}
	if c.ProgressCeiling < 0 || c.ProgressCeiling >= 100 {
		return fmt.Errorf("progress ceiling must be in (0,100)")
	}

	if c.OnReveal == nil {
		c.OnReveal = func(model.AuditResult) {}
	}
	if c.OnError == nil {
		c.OnError = func(string) {}
	}
	if c.OnReset == nil {
		c.OnReset = func() {}
	}
	if c.OnTick == nil {
		c.OnTick = func(int, int) {}
	}
	if c.OnChange == nil {
		c.OnChange = func(View) {}
	}

	return nil
}

// Controller owns the lifecycle of the in-flight audit run and the simulated
// drivers (stage sequencer, progress meter, walker pose clock) that animate it.
//
// The real audit and the simulation are clocked independently and only meet on
// completion: success jumps the simulation to the end and holds it for the grace
// interval, failure stops it where it was.
type Controller struct {
	cfg    ControllerConfig
	logger log.Logger
	walker *walker.Walker

	mu      sync.Mutex
	version uint64
	phase   Phase
	run     *model.OperationRun
	active  *activeRun
	closed  bool
}

// activeRun holds everything that must be torn down when a run ends or is superseded.
type activeRun struct {
	id     string
	logger log.Logger
	seq    *progress.Sequencer
	meter  *progress.Meter
	cancel context.CancelFunc
	slow   bool

	drivers []clock.Timer
	grace   clock.Timer
}

func (a *activeRun) stopDrivers() {
	for _, t := range a.drivers {
		t.Stop()
	}
	a.drivers = nil
}

func (a *activeRun) teardown() {
	a.stopDrivers()
	if a.grace != nil {
		a.grace.Stop()
	}
	a.cancel()
}

// NewController returns an idle controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	w := walker.New(walker.Config{Duration: cfg.WalkDuration})
	w.Place(cfg.Stages[0].Position)

	return &Controller{
		cfg:    cfg,
		logger: cfg.Logger,
		walker: w,
		phase:  PhaseIdle,
	}, nil
}

// Start supersedes any active run and starts auditing domain. A blank domain is
// rejected without touching the current state.
func (c *Controller) Start(ctx context.Context, domain string) error {
	d, err := model.NormalizeDomain(domain)
	if err != nil {
		return fmt.Errorf("invalid domain: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("controller: %w", model.ErrClosed)
	}

	if c.active != nil {
		c.active.logger.Infof("Run superseded")
		c.active.teardown()
		c.active = nil
	}

	now := c.cfg.Clock.Now()
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
	runCtx, cancel := context.WithCancel(c.logger.SetValuesOnCtx(ctx, log.Kv{"run": id}))
	ar := &activeRun{
		id:     id,
		logger: c.logger.WithValues(log.Kv{"run": id, "domain": d}),
		seq:    progress.NewSequencer(len(c.cfg.Stages)),
		meter:  progress.NewMeter(c.cfg.ProgressStep, c.cfg.ProgressCeiling),
		cancel: cancel,
	}
	c.run = &model.OperationRun{
		ID:        id,
		Domain:    d,
		StartedAt: now,
		Status:    model.RunStatusPending,
	}
	c.active = ar
	c.phase = PhasePending
	c.walker.Place(c.cfg.Stages[0].Position)

	ar.drivers = append(ar.drivers,
		clock.Every(c.cfg.Clock, c.cfg.TickInterval, func() { c.tick(id) }),
		clock.Every(c.cfg.Clock, c.cfg.PoseInterval, func() { c.togglePose(id) }),
	)
	if c.cfg.SlowAfter > 0 {
		ar.drivers = append(ar.drivers, c.cfg.Clock.AfterFunc(c.cfg.SlowAfter, func() { c.markSlow(id) }))
	}
	if c.cfg.MaxWait > 0 {
		ar.drivers = append(ar.drivers, c.cfg.Clock.AfterFunc(c.cfg.MaxWait, func() { c.timeout(id) }))
	}
	ar.logger.Infof("Audit started")
	v := c.viewLocked(now)
	c.mu.Unlock()

	go func() {
		res, err := c.cfg.Auditor.Audit(runCtx, d)
		c.complete(id, res, err)
	}()

	c.cfg.OnChange(v)

	return nil
}

// Reset tears down any run and returns to idle. It's safe to call at any time.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.active != nil {
		c.active.logger.Infof("Run reset")
		c.active.teardown()
		c.active = nil
	}
	c.run = nil
	c.phase = PhaseIdle
	c.walker.Place(c.cfg.Stages[0].Position)
	v := c.viewLocked(c.cfg.Clock.Now())
	c.mu.Unlock()

	c.cfg.OnReset()
	c.cfg.OnChange(v)
}

// Close disposes the controller, any active run is torn down and later Start
// calls fail.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.active.teardown()
		c.active = nil
	}
	c.phase = PhaseIdle
	c.closed = true
}

// current returns the active run when id is still the active one and the
// controller is in one of the phases, nil otherwise. Must be called with the lock held.
func (c *Controller) current(id string, phases ...Phase) *activeRun {
	if c.active == nil || c.active.id != id {
		return nil
	}
	for _, p := range phases {
		if c.phase == p {
			return c.active
		}
	}
	return nil
}

func (c *Controller) tick(id string) {
	c.mu.Lock()
	ar := c.current(id, PhasePending)
	if ar == nil {
		c.mu.Unlock()
		return
	}

	now := c.cfg.Clock.Now()
	idx, moved := ar.seq.Tick()
	prog := ar.meter.Tick()
	c.run.CurrentStageIndex = idx
	c.run.SimulatedProgress = prog
	if moved {
		c.walker.SetTarget(c.cfg.Stages[idx].Position, now)
		ar.logger.Debugf("Stage %q, progress %d%%", c.cfg.Stages[idx].ID, prog)
	}
	v := c.viewLocked(now)
	c.mu.Unlock()

	c.cfg.OnTick(idx, prog)
	c.cfg.OnChange(v)
}

func (c *Controller) togglePose(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current(id, PhasePending) == nil {
		return
	}
	c.walker.TogglePose()
}

func (c *Controller) markSlow(id string) {
	c.mu.Lock()
	ar := c.current(id, PhasePending)
	if ar == nil {
		c.mu.Unlock()
		return
	}
	ar.slow = true
	ar.logger.Warningf("Audit is taking longer than %s", c.cfg.SlowAfter)
	v := c.viewLocked(c.cfg.Clock.Now())
	c.mu.Unlock()

	c.cfg.OnChange(v)
}

func (c *Controller) timeout(id string) {
	err := fmt.Errorf("audit took longer than %s: %w", c.cfg.MaxWait, model.ErrTimedOut)
	c.complete(id, nil, err)
}

// complete joins the real audit outcome with the simulation.
func (c *Controller) complete(id string, res *model.AuditResult, auditErr error) {
	c.mu.Lock()
	ar := c.current(id, PhasePending)
	if ar == nil {
		c.mu.Unlock()
		c.logger.WithValues(log.Kv{"run": id}).Debugf("Ignoring completion of a stale run")
		return
	}

	now := c.cfg.Clock.Now()
	ar.stopDrivers()
	c.walker.Freeze()

	if auditErr == nil && res == nil {
		auditErr = fmt.Errorf("audit returned an empty result")
	}

	if auditErr != nil {
		ar.cancel()
		reason := auditErr.Error()
		c.run.Status = model.RunStatusFailed
		c.run.ErrorReason = reason
		c.run.Err = auditErr
		c.active = nil
		c.phase = PhaseIdle
		ar.logger.Errorf("Audit failed at %d%%: %s", c.run.SimulatedProgress, reason)
		v := c.viewLocked(now)
		c.mu.Unlock()

		c.cfg.OnError(reason)
		c.cfg.OnChange(v)
		return
	}

	c.run.Status = model.RunStatusSucceeded
	c.run.Result = res
	c.run.SimulatedProgress = ar.meter.Complete()
	c.run.CurrentStageIndex = ar.seq.Complete()
	c.walker.SetTarget(c.cfg.Stages[c.run.CurrentStageIndex].Position, now)
	c.phase = PhaseSucceeding
	ar.grace = c.cfg.Clock.AfterFunc(c.cfg.GraceHold, func() { c.reveal(id) })
	ar.logger.Infof("Audit succeeded in %s, holding for %s", now.Sub(c.run.StartedAt), c.cfg.GraceHold)
	v := c.viewLocked(now)
	c.mu.Unlock()

	c.cfg.OnChange(v)
}

func (c *Controller) reveal(id string) {
	c.mu.Lock()
	ar := c.current(id, PhaseSucceeding)
	if ar == nil {
		c.mu.Unlock()
		return
	}
	ar.cancel()
	res := *c.run.Result
	c.active = nil
	c.phase = PhaseIdle
	v := c.viewLocked(c.cfg.Clock.Now())
	c.mu.Unlock()

	c.cfg.OnReveal(res)
	c.cfg.OnChange(v)
}
