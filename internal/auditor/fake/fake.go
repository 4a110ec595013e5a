package fake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/domaudit/internal/clock"
	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
)

// AuditorConfig is the configuration for the fake auditor.
type AuditorConfig struct {
	// Latency is how long the audit takes.
	Latency time.Duration
	// FailWith makes the audit fail with this reason when not empty.
	FailWith string
	// Sections is the returned payload, a small default one is used when nil.
	Sections map[string]any
	Clock    clock.Clock
	Logger   log.Logger
}

func (c *AuditorConfig) defaults() error {
	if c.Latency < 0 {
		return fmt.Errorf("latency can't be negative")
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "auditor.Fake"})
	return nil
}

// Auditor is a fake implementation of the auditor.Auditor interface.
// It simulates the remote audit without doing any network call.
type Auditor struct {
	latency  time.Duration
	failWith string
	sections map[string]any
	clock    clock.Clock
	logger   log.Logger
}

// NewAuditor creates a new fake auditor.
func NewAuditor(cfg AuditorConfig) (*Auditor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Auditor{
		latency:  cfg.Latency,
		failWith: cfg.FailWith,
		sections: cfg.Sections,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}, nil
}

// Audit waits the configured latency and returns the fake result or failure.
func (a *Auditor) Audit(ctx context.Context, domain string) (*model.AuditResult, error) {
	done := make(chan struct{})
	timer := a.clock.AfterFunc(a.latency, func() { close(done) })
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	if a.failWith != "" {
		a.logger.WithCtxValues(ctx).Debugf("Fake audit of %s failed", domain)
		return nil, errors.New(a.failWith)
	}

	a.logger.WithCtxValues(ctx).Debugf("Fake audit of %s finished", domain)

	return &model.AuditResult{
		Domain:     domain,
		Sections:   a.payload(domain),
		ReceivedAt: a.clock.Now().UTC(),
	}, nil
}

func (a *Auditor) payload(domain string) map[string]any {
	if a.sections != nil {
		return a.sections
	}

	return map[string]any{
		"whois": map[string]any{
			"Registrar":    "Fake Registrar Inc.",
			"Name Servers": []any{"ns1." + domain, "ns2." + domain},
		},
		"hosting": map[string]any{
			"IP":       "192.0.2.10",
			"Provider": "Fake Cloud",
		},
		"security": map[string]any{
			"SSL Valid":        true,
			"Security Headers": 4,
			"HSTS":             "max-age=31536000",
		},
		"performance": map[string]any{
			"Load Time": "0.42s",
		},
	}
}
