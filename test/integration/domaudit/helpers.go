package domaudit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/domaudit/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "domaudit"
	}

	// If relative, the caller should pass an absolute path via the env var,
	// because go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("DOMAUDIT_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("domaudit binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "DOMAUDIT_INTEGRATION"
		envBinary     = "DOMAUDIT_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunCmd runs a domaudit command with an isolated stages file path.
// It suppresses logging output for cleaner test output.
func RunCmd(ctx context.Context, config Config, stagesFile, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--no-log --stages-file %s %s", stagesFile, cmdArgs)
	return testutils.RunDomaudit(ctx, nil, config.Binary, args, true)
}

// RunPlainAudit audits a domain with the plain UI and fast loader timings.
func RunPlainAudit(ctx context.Context, config Config, stagesFile, engineArgs, domain string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("audit --ui plain --format json --tick 10ms --grace 10ms %s %s", engineArgs, domain)
	return RunCmd(ctx, config, stagesFile, args)
}
