// Package tui is the interactive terminal front end. It owns the tcell screen,
// turns key presses into loader operations and draws the loader views on top of
// the particle background.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/slok/domaudit/internal/animation"
	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/clock"
	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/particle"
	"github.com/slok/domaudit/internal/storage"
	"github.com/slok/domaudit/internal/storage/memory"
)

type mode int

const (
	modeInput mode = iota
	modeLoading
	modeResult
	modeError
)

// Events posted to the screen queue, everything that changes the app state
// goes through the terminal event goroutine.
type (
	viewEvent   struct{ view loader.View }
	revealEvent struct{ result model.AuditResult }
	failEvent   struct{ reason string }
	frameEvent  struct{}
	quitEvent   struct{}
)

// AppConfig is the configuration of the terminal app.
type AppConfig struct {
	// Screen is the tcell screen, Run initializes and finalizes it.
	Screen tcell.Screen
	// Loader is the controller configuration, its callbacks are owned by the app.
	Loader loader.ControllerConfig
	// Clock drives the frame loop and the controller when the loader config doesn't set one.
	Clock clock.Clock
	// FPS is the frame loop rate.
	FPS int
	// Particles is the particle pool size.
	Particles int
	// Rand is the random source for the particle pool.
	Rand *rand.Rand
	// NoColor renders everything with the default terminal style.
	NoColor bool
	// Domain is audited right away when set.
	Domain string
	// History keeps the finished runs shown as recent audits, an in-memory one is used by default.
	History storage.RunRepository
	Logger  log.Logger
}

func (c *AppConfig) defaults() error {
	if c.Screen == nil {
		return fmt.Errorf("screen is required")
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Loader.Clock == nil {
		c.Loader.Clock = c.Clock
	}
	if c.Particles == 0 {
		c.Particles = 50
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Loader.Logger == nil {
		c.Loader.Logger = c.Logger
	}
	if c.History == nil {
		repo, err := memory.NewRepository(memory.RepositoryConfig{Limit: recentRuns, Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create run history: %w", err)
		}
		c.History = repo
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "tui.App"})

	return nil
}

// App is the terminal app.
type App struct {
	cfg    AppConfig
	screen tcell.Screen
	ctrl   *loader.Controller
	loop   *animation.Loop
	logger log.Logger

	// framePending coalesces frame events, at most one is queued.
	framePending atomic.Bool

	// Only accessed from the event goroutine.
	field  *particle.Field
	mode   mode
	input  []rune
	notice string
	view   loader.View
	result model.AuditResult
	reason string
	recent []model.OperationRun
}

// NewApp returns a new terminal app.
func NewApp(cfg AppConfig) (*App, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		cfg:    cfg,
		screen: cfg.Screen,
		logger: cfg.Logger,
		mode:   modeInput,
	}

	lcfg := cfg.Loader
	lcfg.OnChange = func(v loader.View) { _ = a.post(viewEvent{view: v}) }
	lcfg.OnReveal = func(r model.AuditResult) { _ = a.post(revealEvent{result: r}) }
	lcfg.OnError = func(reason string) { _ = a.post(failEvent{reason: reason}) }
	ctrl, err := loader.NewController(lcfg)
	if err != nil {
		return nil, fmt.Errorf("could not create loader controller: %w", err)
	}
	a.ctrl = ctrl
	a.view = ctrl.View()

	loop, err := animation.NewLoop(animation.LoopConfig{
		Clock:  cfg.Clock,
		FPS:    cfg.FPS,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create frame loop: %w", err)
	}
	a.loop = loop

	return a, nil
}

// Run runs the app until the user quits or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("could not init screen: %w", err)
	}
	defer a.screen.Fini()
	a.screen.HideCursor()

	w, h := a.screen.Size()
	field, err := particle.NewField(particle.FieldConfig{
		Count:  a.cfg.Particles,
		Width:  float64(max(w, 1)),
		Height: float64(max(h, 1)),
		Rand:   a.cfg.Rand,
	})
	if err != nil {
		return fmt.Errorf("could not create particle field: %w", err)
	}
	a.field = field

	unsubscribe := a.loop.Subscribe("particles", a.stepParticles)
	defer unsubscribe()
	a.loop.Start()
	defer a.loop.Stop()
	defer a.ctrl.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			for a.post(quitEvent{}) != nil {
				select {
				case <-done:
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
		case <-done:
		}
	}()

	if a.cfg.Domain != "" {
		a.input = []rune(a.cfg.Domain)
		a.submit(ctx)
	}
	a.draw()

	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}

		if quit := a.handle(ctx, ev); quit {
			a.logger.Debugf("Quitting terminal app")
			return nil
		}
		a.draw()
	}
}

// handle applies an event to the app state, returns true when the app must quit.
func (a *App) handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		w, h := ev.Size()
		if err := a.field.Resize(float64(w), float64(h)); err != nil {
			a.logger.Debugf("Ignoring resize to %dx%d: %s", w, h, err)
		}
	case *tcell.EventKey:
		return a.handleKey(ctx, ev)
	case *tcell.EventInterrupt:
		return a.handleInterrupt(ctx, ev.Data())
	}

	return false
}

func (a *App) handleInterrupt(ctx context.Context, data any) bool {
	switch e := data.(type) {
	case quitEvent:
		return true
	case viewEvent:
		if e.view.Version < a.view.Version {
			return false
		}
		a.view = e.view
		a.follow(ctx)
	case frameEvent:
		a.framePending.Store(false)
		a.view = a.ctrl.View()
		a.follow(ctx)
	case revealEvent:
		if a.mode == modeLoading {
			a.result = e.result
			a.finish(ctx, modeResult)
		}
	case failEvent:
		if a.mode == modeLoading {
			a.reason = e.reason
			a.finish(ctx, modeError)
		}
	}

	return false
}

// follow leaves the loading view when the controller finished the run, in case
// the reveal or failure events were dropped by a full queue.
func (a *App) follow(ctx context.Context) {
	if a.mode != modeLoading || a.view.Phase != loader.PhaseIdle || a.view.Run == nil {
		return
	}

	switch a.view.Run.Status {
	case model.RunStatusSucceeded:
		if a.view.Run.Result != nil {
			a.result = *a.view.Run.Result
			a.finish(ctx, modeResult)
		}
	case model.RunStatusFailed:
		a.reason = a.view.Run.ErrorReason
		a.finish(ctx, modeError)
	}
}

// finish leaves the loading view and records the finished run.
func (a *App) finish(ctx context.Context, m mode) {
	a.mode = m

	run := a.ctrl.View().Run
	if run == nil {
		return
	}
	if err := a.cfg.History.SaveRun(ctx, *run); err != nil {
		a.logger.Warningf("Could not save run %s: %s", run.ID, err)
		return
	}

	recent, err := a.cfg.History.ListRuns(ctx)
	if err != nil {
		a.logger.Warningf("Could not list recent runs: %s", err)
		return
	}
	a.recent = recent
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}

	switch a.mode {
	case modeInput:
		switch ev.Key() {
		case tcell.KeyEnter:
			a.submit(ctx)
		case tcell.KeyEscape:
			a.input = a.input[:0]
			a.notice = ""
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(a.input) > 0 {
				a.input = a.input[:len(a.input)-1]
			}
		case tcell.KeyRune:
			a.input = append(a.input, ev.Rune())
			a.notice = ""
		}
	case modeLoading:
		// Resets are applied here, a queued key can already belong to the next run.
		if ev.Key() == tcell.KeyEscape {
			a.ctrl.Reset()
			a.mode = modeInput
		}
	case modeResult:
		switch {
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'n':
			a.ctrl.Reset()
			a.input = a.input[:0]
			a.mode = modeInput
		}
	case modeError:
		switch {
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return true
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r', ev.Key() == tcell.KeyEscape:
			a.ctrl.Reset()
			a.mode = modeInput
		}
	}

	return false
}

func (a *App) submit(ctx context.Context) {
	err := a.ctrl.Start(ctx, string(a.input))
	if err != nil {
		if errors.Is(err, model.ErrNotValid) {
			a.notice = emptyNotice
			return
		}
		a.logger.Errorf("Could not start audit: %s", err)
		a.notice = err.Error()
		return
	}

	a.notice = ""
	a.mode = modeLoading
	a.view = a.ctrl.View()
}

func (a *App) stepParticles(fr animation.Frame) error {
	dt := 1.0
	if fr.Delta > 0 {
		dt = float64(fr.Delta) / float64(a.loop.Interval())
	}
	a.field.Step(dt)

	if !a.framePending.CompareAndSwap(false, true) {
		return nil
	}
	if err := a.post(frameEvent{}); err != nil {
		a.framePending.Store(false)
	}

	return nil
}

// post queues an app event. A full queue drops the event, the next frame
// redraws from the controller state anyway.
func (a *App) post(data any) error {
	return a.screen.PostEvent(tcell.NewEventInterrupt(data))
}
