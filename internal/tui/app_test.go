package tui_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/clock"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/tui"
)

type outcome struct {
	res *model.AuditResult
	err error
}

// chanAuditor blocks every audit until the test sends its outcome.
type chanAuditor struct {
	domains  chan string
	outcomes chan outcome
}

func newChanAuditor() *chanAuditor {
	return &chanAuditor{domains: make(chan string, 10), outcomes: make(chan outcome, 10)}
}

func (c *chanAuditor) Audit(ctx context.Context, domain string) (*model.AuditResult, error) {
	c.domains <- domain
	select {
	case o := <-c.outcomes:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type testEnv struct {
	screen  tcell.SimulationScreen
	clock   *clock.Fake
	auditor *chanAuditor
	cancel  context.CancelFunc
	errC    chan error
}

func newTestEnv(t *testing.T, domain string) *testEnv {
	t.Helper()

	env := &testEnv{
		screen:  tcell.NewSimulationScreen("UTF-8"),
		clock:   clock.NewFake(time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)),
		auditor: newChanAuditor(),
		errC:    make(chan error, 1),
	}

	app, err := tui.NewApp(tui.AppConfig{
		Screen:  env.screen,
		Clock:   env.clock,
		Rand:    rand.New(rand.NewPCG(1, 2)),
		NoColor: true,
		Domain:  domain,
		Loader: loader.ControllerConfig{
			Auditor: env.auditor,
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	env.cancel = cancel
	go func() { env.errC <- app.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-env.errC:
		case <-time.After(2 * time.Second):
			t.Errorf("app didn't stop")
		}
	})

	return env
}

func (e *testEnv) text() string {
	cells, w, h := e.screen.GetContents()
	var b strings.Builder
	for y := range h {
		for x := range w {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (e *testEnv) waitText(t *testing.T, s string) {
	t.Helper()
	assert.Eventually(t, func() bool { return strings.Contains(e.text(), s) }, 2*time.Second, 5*time.Millisecond, "screen never showed %q", s)
}

// typeInput types s in the domain input one key at a time, the screen event
// queue is small.
func (e *testEnv) typeInput(t *testing.T, s string) {
	t.Helper()
	typed := ""
	for _, r := range s {
		e.screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
		typed += string(r)
		e.waitText(t, "> "+typed+"_")
	}
}

func (e *testEnv) typeKey(r rune) {
	e.screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

func (e *testEnv) press(k tcell.Key) {
	e.screen.InjectKey(k, 0, tcell.ModNone)
}

func (e *testEnv) nextDomain(t *testing.T) string {
	t.Helper()
	select {
	case d := <-e.auditor.domains:
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("audit was never called")
		return ""
	}
}

func TestAppConfig(t *testing.T) {
	_, err := tui.NewApp(tui.AppConfig{})
	assert.Error(t, err)

	_, err = tui.NewApp(tui.AppConfig{Screen: tcell.NewSimulationScreen("UTF-8")})
	assert.Error(t, err, "the loader requires an auditor")
}

func TestAppSuccessfulAudit(t *testing.T) {
	env := newTestEnv(t, "")
	env.waitText(t, "Domain Audit")

	env.typeInput(t, "https://www.Example.com/about")
	env.press(tcell.KeyEnter)

	assert.Equal(t, "example.com", env.nextDomain(t))
	env.waitText(t, "Auditing example.com")
	env.waitText(t, "Initializing domain analysis... (1/9)")

	env.clock.Advance(1600 * time.Millisecond)
	env.waitText(t, " 20%")

	env.auditor.outcomes <- outcome{res: &model.AuditResult{
		Domain:     "example.com",
		ReceivedAt: env.clock.Now(),
		Sections: map[string]any{
			"whois": map[string]any{"registrar": "Example Registrar"},
		},
	}}
	env.waitText(t, "100%")
	env.waitText(t, "Compiling final report... (9/9)")

	// The result is revealed only after the grace hold.
	assert.NotContains(t, env.text(), "Audit complete")
	env.clock.Advance(loader.DefaultGraceHold)
	env.waitText(t, "Audit complete: example.com")
	env.waitText(t, "registrar: Example Registrar")

	// New audit goes back to an empty input.
	env.typeKey('n')
	env.waitText(t, "Enter a domain to audit")
	assert.Contains(t, env.text(), "> _")
	env.waitText(t, "Recent audits")
	env.waitText(t, "example.com  succeeded")
}

func TestAppFailedAudit(t *testing.T) {
	env := newTestEnv(t, "example.com")

	env.nextDomain(t)
	env.waitText(t, "Auditing example.com")
	env.clock.Advance(3200 * time.Millisecond)
	env.waitText(t, " 40%")

	env.auditor.outcomes <- outcome{err: fmt.Errorf("Server error: 500")}
	env.waitText(t, "Audit Failed")
	env.waitText(t, "Server error: 500")

	// Retry keeps the domain in the input.
	env.typeKey('r')
	env.waitText(t, "> example.com_")
	env.waitText(t, "example.com  failed")
}

func TestAppBlankDomain(t *testing.T) {
	env := newTestEnv(t, "")
	env.waitText(t, "Domain Audit")

	env.typeInput(t, "   ")
	env.press(tcell.KeyEnter)
	env.waitText(t, "Please enter a domain to audit")
	assert.NotContains(t, env.text(), "Auditing")
}

func TestAppCancelLoading(t *testing.T) {
	env := newTestEnv(t, "example.com")

	env.nextDomain(t)
	env.waitText(t, "Auditing example.com")

	env.press(tcell.KeyEscape)
	env.waitText(t, "Enter a domain to audit")

	// The result of the cancelled run never shows up.
	env.auditor.outcomes <- outcome{res: &model.AuditResult{Domain: "example.com"}}
	env.clock.Advance(2 * loader.DefaultGraceHold)
	assert.Never(t, func() bool { return strings.Contains(env.text(), "Audit complete") }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestAppResubmitRightAfterCancel(t *testing.T) {
	env := newTestEnv(t, "example.com")

	env.nextDomain(t)
	env.waitText(t, "Auditing example.com")

	// Both keys are queued before the app handles the cancellation.
	env.press(tcell.KeyEscape)
	env.press(tcell.KeyEnter)
	assert.Equal(t, "example.com", env.nextDomain(t))
	env.waitText(t, "Auditing example.com")

	// The cancelled audit may still take one of the outcomes.
	res := &model.AuditResult{Domain: "example.com", ReceivedAt: env.clock.Now()}
	env.auditor.outcomes <- outcome{res: res}
	env.auditor.outcomes <- outcome{res: res}
	env.waitText(t, "100%")

	env.clock.Advance(loader.DefaultGraceHold)
	env.waitText(t, "Audit complete: example.com")
}

func TestAppQuitStopsTimers(t *testing.T) {
	env := newTestEnv(t, "example.com")

	env.nextDomain(t)
	env.waitText(t, "Auditing example.com")
	env.clock.Advance(1600 * time.Millisecond)
	env.waitText(t, " 20%")
	require.NotZero(t, env.clock.Pending())

	env.press(tcell.KeyCtrlC)
	select {
	case err := <-env.errC:
		assert.NoError(t, err)
		env.errC <- err
	case <-time.After(2 * time.Second):
		t.Fatalf("app didn't quit")
	}

	// Frame loop and loader timers are gone once Run returns.
	assert.Zero(t, env.clock.Pending())
}

func TestAppQuit(t *testing.T) {
	tests := map[string]struct {
		quit func(e *testEnv)
	}{
		"Ctrl-C should quit.": {
			quit: func(e *testEnv) { e.press(tcell.KeyCtrlC) },
		},
		"Context cancellation should quit.": {
			quit: func(e *testEnv) { e.cancel() },
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, "")
			env.waitText(t, "Domain Audit")

			test.quit(env)
			select {
			case err := <-env.errC:
				assert.NoError(t, err)
				env.errC <- err
			case <-time.After(2 * time.Second):
				t.Fatalf("app didn't quit")
			}
		})
	}
}
