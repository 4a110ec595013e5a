package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const progressBarWidth = 40

// ProgressLine renders the loader state as a single refreshing terminal line.
type ProgressLine struct {
	w        io.Writer
	mu       sync.Mutex
	lastLen  int
	finished bool
}

// NewProgressLine creates a new progress line writing to w.
func NewProgressLine(w io.Writer) *ProgressLine {
	return &ProgressLine{w: w}
}

// Update redraws the line with the current progress, stage label and slow flag.
func (p *ProgressLine) Update(progress int, label string, slow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	filled := progress * progressBarWidth / 100
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", progressBarWidth-filled)
	line := fmt.Sprintf("  [%s] %3d%% %s", bar, progress, label)
	if slow {
		line += " (taking longer than usual...)"
	}

	// Pad to clear leftovers from a longer previous line.
	pad := ""
	if n := p.lastLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.lastLen = len(line)

	fmt.Fprintf(p.w, "\r%s%s", line, pad)
}

// Finish ends the progress line with a newline, later updates are ignored.
func (p *ProgressLine) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true
	fmt.Fprintln(p.w)
}
