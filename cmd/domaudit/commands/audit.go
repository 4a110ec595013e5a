package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gdamore/tcell/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/auditor"
	"github.com/slok/domaudit/internal/auditor/fake"
	"github.com/slok/domaudit/internal/auditor/remote"
	"github.com/slok/domaudit/internal/conventions"
	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/printer"
	"github.com/slok/domaudit/internal/tui"
)

const (
	// EngineHTTP audits against the backend.
	EngineHTTP = "http"
	// EngineFake audits in process, useful for demos and tests.
	EngineFake = "fake"

	// UITUI is the interactive terminal UI.
	UITUI = "tui"
	// UIPlain is a single progress line followed by the printed result.
	UIPlain = "plain"
)

// AuditCommand audits a domain while showing the loader.
type AuditCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	domain      string
	backendURL  string
	engine      string
	ui          string
	format      string
	tick        time.Duration
	grace       time.Duration
	slowAfter   time.Duration
	maxWait     time.Duration
	fps         int
	particles   int
	fakeLatency time.Duration
	fakeFail    string
	logFile     string
}

// NewAuditCommand returns the audit command.
func NewAuditCommand(rootCmd *RootCommand, app *kingpin.Application) *AuditCommand {
	c := &AuditCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("audit", "Audit a domain.").Default()
	c.Cmd.Arg("domain", "Domain to audit, the terminal UI asks for it when missing.").StringVar(&c.domain)
	c.Cmd.Flag("backend-url", "Audit backend base URL.").Default(conventions.DefaultBackendURL).StringVar(&c.backendURL)
	c.Cmd.Flag("engine", "Audit engine (http, fake).").Default(EngineHTTP).EnumVar(&c.engine, EngineHTTP, EngineFake)
	c.Cmd.Flag("ui", "User interface (tui, plain).").Default(UITUI).EnumVar(&c.ui, UITUI, UIPlain)
	c.Cmd.Flag("format", "Result output format for the plain UI (table, json).").Default("table").EnumVar(&c.format, "table", "json")
	c.Cmd.Flag("tick", "Simulated stage and progress tick interval.").Default(loader.DefaultTickInterval.String()).DurationVar(&c.tick)
	c.Cmd.Flag("grace", "Time the finished loader is held before showing the result.").Default(loader.DefaultGraceHold.String()).DurationVar(&c.grace)
	c.Cmd.Flag("slow-after", "Show a slow notice after this time, 0 disables it.").Default("15s").DurationVar(&c.slowAfter)
	c.Cmd.Flag("max-wait", "Fail the audit after this time, 0 waits forever.").Default("0s").DurationVar(&c.maxWait)
	c.Cmd.Flag("fps", "Terminal UI frames per second.").Default("30").IntVar(&c.fps)
	c.Cmd.Flag("particles", "Terminal UI background particle count.").Default("50").IntVar(&c.particles)
	c.Cmd.Flag("fake-latency", "Fake engine audit latency.").Default("4s").DurationVar(&c.fakeLatency)
	c.Cmd.Flag("fake-fail", "Fake engine failure reason, the audit succeeds when empty.").StringVar(&c.fakeFail)
	c.Cmd.Flag("log-file", "Log file used while the terminal UI owns the screen, empty disables logs.").Default(conventions.LogPath(homedir.HomeDir())).StringVar(&c.logFile)

	return c
}

func (c AuditCommand) Name() string { return c.Cmd.FullCommand() }

// OwnsTerminal returns true when the command takes over the terminal screen.
func (c AuditCommand) OwnsTerminal() bool { return c.ui == UITUI }

// OpenLogFile opens the log file used while the terminal is owned by the UI.
// It returns nil when file logging is disabled.
func (c AuditCommand) OpenLogFile() (io.WriteCloser, error) {
	if c.logFile == "" {
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.logFile), 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	return f, nil
}

func (c AuditCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	stages, err := loadStages(ctx, c.rootCmd.StagesFile, defaultStagesPath(), logger)
	if err != nil {
		return err
	}

	aud, err := newAuditor(c.engine, c.backendURL, c.fakeLatency, c.fakeFail, logger)
	if err != nil {
		return err
	}

	lcfg := loader.ControllerConfig{
		Auditor:      aud,
		Stages:       stages,
		Logger:       logger,
		TickInterval: c.tick,
		GraceHold:    c.grace,
		SlowAfter:    c.slowAfter,
		MaxWait:      c.maxWait,
	}

	switch c.ui {
	case UIPlain:
		return c.runPlain(ctx, lcfg)
	default:
		return c.runTUI(ctx, lcfg)
	}
}

func (c AuditCommand) runTUI(ctx context.Context, lcfg loader.ControllerConfig) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("could not create terminal screen: %w", err)
	}

	app, err := tui.NewApp(tui.AppConfig{
		Screen:    screen,
		Loader:    lcfg,
		FPS:       c.fps,
		Particles: c.particles,
		NoColor:   c.rootCmd.NoColor,
		Domain:    c.domain,
		Logger:    c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create terminal app: %w", err)
	}

	return app.Run(ctx)
}

type plainOutcome struct {
	result *model.AuditResult
	reason string
}

// plainProgress draws loader views on a progress line. Loader callbacks can
// arrive out of order, views older than the last drawn one are skipped.
type plainProgress struct {
	line *printer.ProgressLine

	mu          sync.Mutex
	lastVersion uint64
}

func (p *plainProgress) update(v loader.View) {
	if v.Phase == loader.PhaseIdle {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if v.Version <= p.lastVersion {
		return
	}
	p.lastVersion = v.Version
	p.line.Update(v.Progress, v.Stage().Label, v.Slow)
}

func (c AuditCommand) runPlain(ctx context.Context, lcfg loader.ControllerConfig) error {
	if c.domain == "" {
		return fmt.Errorf("domain is required with the plain UI")
	}

	line := printer.NewProgressLine(c.rootCmd.Stderr)
	progress := &plainProgress{line: line}
	done := make(chan plainOutcome, 1)
	lcfg.OnChange = progress.update
	lcfg.OnReveal = func(r model.AuditResult) { done <- plainOutcome{result: &r} }
	lcfg.OnError = func(reason string) { done <- plainOutcome{reason: reason} }

	ctrl, err := loader.NewController(lcfg)
	if err != nil {
		return fmt.Errorf("could not create loader controller: %w", err)
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx, c.domain); err != nil {
		return fmt.Errorf("could not start audit: %w", err)
	}

	var out plainOutcome
	select {
	case <-ctx.Done():
		line.Finish()
		return fmt.Errorf("audit cancelled: %w", ctx.Err())
	case out = <-done:
	}
	line.Finish()

	if out.result == nil {
		return fmt.Errorf("audit failed: %s", out.reason)
	}

	v := ctrl.View()
	if v.Run == nil {
		return fmt.Errorf("audit run is missing")
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintResult(*v.Run); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}

func newAuditor(engine, backendURL string, fakeLatency time.Duration, fakeFail string, logger log.Logger) (auditor.Auditor, error) {
	switch engine {
	case EngineFake:
		a, err := fake.NewAuditor(fake.AuditorConfig{
			Latency:  fakeLatency,
			FailWith: fakeFail,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create fake auditor: %w", err)
		}
		return a, nil
	default:
		a, err := remote.NewAuditor(remote.AuditorConfig{
			BaseURL: backendURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create remote auditor: %w", err)
		}
		return a, nil
	}
}
