package lib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/auditor"
	"github.com/slok/domaudit/internal/auditor/fake"
	"github.com/slok/domaudit/internal/auditor/remote"
	"github.com/slok/domaudit/internal/conventions"
	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/storage/io"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. At minimum, an empty
// Config{} audits against http://localhost:8000 with the built-in stages.
type Config struct {
	// Engine selects the audit engine.
	// Default: [EngineHTTP].
	Engine EngineType

	// BaseURL is the audit backend base URL, only used by [EngineHTTP].
	// Default: http://localhost:8000.
	BaseURL string

	// HTTPClient is the client used by [EngineHTTP]. No network timeout is set
	// by default, use [Config].MaxWait or a client with a timeout.
	// Default: http.DefaultClient.
	HTTPClient *http.Client

	// FakeLatency is how long [EngineFake] audits take.
	FakeLatency time.Duration

	// FakeFailure makes [EngineFake] audits fail with this reason when set.
	FakeFailure string

	// Stages is the simulated stage catalog. When empty, StagesFile is used and
	// then the built-in stages.
	Stages []Stage

	// StagesFile is a YAML stage catalog path.
	StagesFile string

	// TickInterval is the simulated stage and progress tick interval.
	// Default: 800ms.
	TickInterval time.Duration

	// GraceHold is how long the finished loader is held before the result is returned.
	// Default: 800ms.
	GraceHold time.Duration

	// SlowAfter flags the progress as slow after this time, 0 disables it.
	SlowAfter time.Duration

	// MaxWait fails the audit with [ErrTimedOut] after this time, 0 waits forever.
	MaxWait time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Engine == "" {
		c.Engine = EngineHTTP
	}
	if c.BaseURL == "" {
		c.BaseURL = conventions.DefaultBackendURL
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for running audits programmatically.
//
// Create a Client with [New]. A Client is safe for concurrent use.
type Client struct {
	auditor auditor.Auditor
	stages  model.StageCatalog
	cfg     Config
	logger  log.Logger
}

// New creates a new SDK client.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	aud, err := newAuditor(cfg)
	if err != nil {
		return nil, mapError(err)
	}

	stages, err := loadStages(cfg)
	if err != nil {
		return nil, mapError(err)
	}

	return &Client{
		auditor: aud,
		stages:  stages,
		cfg:     cfg,
		logger:  cfg.Logger,
	}, nil
}

// Stages returns the stage catalog used by the client.
func (c *Client) Stages() []Stage {
	return fromInternalStages(c.stages)
}

// Audit audits a domain and blocks until the result is available.
//
// Returns [ErrNotValid] for a blank domain, [ErrAuditFailed] when the backend
// failed, [ErrTimedOut] when [Config].MaxWait was exceeded, or the context error
// when ctx is cancelled first.
func (c *Client) Audit(ctx context.Context, domain string, opts *AuditOpts) (*Result, error) {
	var onProgress func(Progress)
	if opts != nil && opts.OnProgress != nil {
		onProgress = opts.OnProgress
	}

	type outcome struct {
		revealed bool
		reason   string
	}
	done := make(chan outcome, 1)

	// Loader callbacks can race, only newer snapshots are reported.
	var (
		progressMu  sync.Mutex
		lastVersion uint64
	)

	ctrl, err := loader.NewController(loader.ControllerConfig{
		Auditor:      c.auditor,
		Stages:       c.stages,
		Logger:       c.logger,
		TickInterval: c.cfg.TickInterval,
		GraceHold:    c.cfg.GraceHold,
		SlowAfter:    c.cfg.SlowAfter,
		MaxWait:      c.cfg.MaxWait,
		OnReveal:     func(model.AuditResult) { done <- outcome{revealed: true} },
		OnError:      func(reason string) { done <- outcome{reason: reason} },
		OnChange: func(v loader.View) {
			if onProgress == nil || v.Phase == loader.PhaseIdle {
				return
			}
			progressMu.Lock()
			defer progressMu.Unlock()
			if v.Version <= lastVersion {
				return
			}
			lastVersion = v.Version
			onProgress(fromInternalView(v))
		},
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create loader: %w: %w", err, model.ErrNotValid))
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx, domain); err != nil {
		return nil, mapError(err)
	}

	var out outcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-done:
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	v := ctrl.View()
	if v.Run == nil {
		return nil, fmt.Errorf("%w: run is missing", ErrAuditFailed)
	}
	if !out.revealed {
		if errors.Is(v.Run.Err, model.ErrTimedOut) {
			return nil, fmt.Errorf("%s: %w", out.reason, ErrTimedOut)
		}
		return nil, fmt.Errorf("%w: %s", ErrAuditFailed, out.reason)
	}

	return fromInternalRun(*v.Run), nil
}

func newAuditor(cfg Config) (auditor.Auditor, error) {
	switch cfg.Engine {
	case EngineFake:
		a, err := fake.NewAuditor(fake.AuditorConfig{
			Latency:  cfg.FakeLatency,
			FailWith: cfg.FakeFailure,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create fake auditor: %w: %w", err, model.ErrNotValid)
		}
		return a, nil
	case EngineHTTP:
		a, err := remote.NewAuditor(remote.AuditorConfig{
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create remote auditor: %w: %w", err, model.ErrNotValid)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported engine type: %s: %w", cfg.Engine, ErrNotValid)
	}
}

func loadStages(cfg Config) (model.StageCatalog, error) {
	if len(cfg.Stages) > 0 {
		stages := toInternalStages(cfg.Stages)
		if err := stages.Validate(); err != nil {
			return nil, fmt.Errorf("invalid stages: %w", err)
		}
		return stages, nil
	}

	if cfg.StagesFile == "" {
		return model.DefaultStages(), nil
	}

	absPath, err := filepath.Abs(cfg.StagesFile)
	if err != nil {
		return nil, fmt.Errorf("could not resolve stages file path: %w", err)
	}
	repo := io.NewStagesYAMLRepository(os.DirFS("/"))
	stages, err := repo.GetStages(context.Background(), absPath[1:])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("could not load stages: %w: %w", err, model.ErrNotValid)
	}

	return stages, nil
}
