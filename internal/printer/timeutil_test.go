package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/domaudit/internal/printer"
)

func TestFormatElapsed(t *testing.T) {
	tests := map[string]struct {
		d        time.Duration
		expected string
	}{
		"Negative durations are zero": {d: -time.Second, expected: "0.0s"},
		"Sub second":                  {d: 400 * time.Millisecond, expected: "0.4s"},
		"Seconds":                     {d: 12 * time.Second, expected: "12.0s"},
		"Minutes":                     {d: 2*time.Minute + 5*time.Second, expected: "2m05s"},
		"Hours":                       {d: time.Hour + 2*time.Minute, expected: "1h02m"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, printer.FormatElapsed(tt.d))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 30, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2026-01-30 09:00:00 UTC", printer.FormatTimestamp(ts))
}
