package tui

import (
	"fmt"
	"math"
	"sort"

	"github.com/gdamore/tcell/v2"

	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/particle"
	"github.com/slok/domaudit/internal/printer"
)

const (
	slowMessage  = "Taking longer than usual..."
	failedTitle  = "Audit Failed"
	emptyNotice  = "Please enter a domain to audit"
	trackPadding = 4
	recentRuns   = 5
)

var particleGlyphs = []rune{'·', '∙', '•', '●'}

func (a *App) draw() {
	a.screen.Clear()
	a.drawParticles()

	switch a.mode {
	case modeInput:
		a.drawInput()
	case modeLoading:
		a.drawLoading()
	case modeResult:
		a.drawResult()
	case modeError:
		a.drawError()
	}

	a.screen.Show()
}

func (a *App) engaged() bool {
	return a.mode == modeLoading || (a.mode == modeInput && len(a.input) > 0)
}

func (a *App) drawParticles() {
	if a.field == nil {
		return
	}

	glow := particle.GlowFor(particle.Engagement(a.engaged()))
	halo := int(glow.Blur / 5)
	ps := a.field.Particles()

	// Halos first so cores are never hidden by a neighbour's halo.
	for _, p := range ps {
		x, y := int(p.X), int(p.Y)
		level := a.particleLevel(p, glow) / 3
		for d := 1; d <= halo; d++ {
			a.screen.SetContent(x-d, y, '·', nil, a.gray(level))
			a.screen.SetContent(x+d, y, '·', nil, a.gray(level))
		}
	}

	for _, p := range ps {
		weight := min(p.Radius/2, 1) * glow.Intensity
		idx := min(int(weight*float64(len(particleGlyphs))), len(particleGlyphs)-1)
		a.screen.SetContent(int(p.X), int(p.Y), particleGlyphs[idx], nil, a.gray(a.particleLevel(p, glow)))
	}
}

func (a *App) particleLevel(p particle.Particle, glow particle.Glow) int32 {
	return int32(60 + 195*glow.Intensity*min(0.4+p.Radius/3, 1))
}

func (a *App) gray(level int32) tcell.Style {
	if a.cfg.NoColor {
		return tcell.StyleDefault
	}
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(level, level, level))
}

func (a *App) style(c tcell.Color) tcell.Style {
	if a.cfg.NoColor {
		return tcell.StyleDefault
	}
	return tcell.StyleDefault.Foreground(c)
}

func (a *App) drawInput() {
	w, h := a.screen.Size()
	y := h/2 - 3

	a.drawCentered(y, a.style(tcell.ColorWhite).Bold(true), "Domain Audit")
	a.drawCentered(y+2, a.style(tcell.ColorSilver), "Enter a domain to audit")

	field := "> " + string(a.input) + "_"
	a.drawText(max((w-len([]rune(field)))/2, 0), y+4, a.style(tcell.ColorAqua), field)

	if a.notice != "" {
		a.drawCentered(y+6, a.style(tcell.ColorYellow), a.notice)
	}

	if len(a.recent) > 0 {
		a.drawCentered(y+8, a.style(tcell.ColorGray), "Recent audits")
		for i, r := range a.recent[:min(len(a.recent), recentRuns)] {
			st := a.style(tcell.ColorGreen)
			if r.Status == model.RunStatusFailed {
				st = a.style(tcell.ColorRed)
			}
			a.drawCentered(y+9+i, st, fmt.Sprintf("%s  %s", r.Domain, r.Status))
		}
	}
	a.drawCentered(h-1, a.style(tcell.ColorGray), "Enter audit   Esc clear   Ctrl-C quit")
}

func (a *App) drawLoading() {
	w, h := a.screen.Size()
	v := a.view
	y := h/2 - 6

	domain := ""
	if v.Run != nil {
		domain = v.Run.Domain
	}
	a.drawCentered(y, a.style(tcell.ColorWhite).Bold(true), "Auditing "+domain)

	trackW := max(w-2*trackPadding, 10)
	a.drawSprite(trackPadding+trackX(v.Character.Position, trackW), y+2, v.Character.Walking)
	a.drawTrack(y+5, trackW, v)

	barW := min(trackW, 40)
	filled := v.Progress * barW / 100
	bar := make([]rune, 0, barW)
	for i := range barW {
		if i < filled {
			bar = append(bar, '█')
			continue
		}
		bar = append(bar, '░')
	}
	a.drawCentered(y+7, a.style(tcell.ColorGreen), fmt.Sprintf("%s %3d%%", string(bar), v.Progress))

	if len(v.Stages) > 0 {
		st := v.Stage()
		a.drawCentered(y+8, a.style(tcell.ColorSilver), fmt.Sprintf("%s (%d/%d)", st.Label, st.Index+1, len(v.Stages)))
	}

	if v.Slow {
		a.drawCentered(y+10, a.style(tcell.ColorYellow), slowMessage)
	}
	a.drawCentered(h-1, a.style(tcell.ColorGray), fmt.Sprintf("%s elapsed   Esc cancel   Ctrl-C quit", printer.FormatElapsed(v.Elapsed)))
}

func (a *App) drawTrack(y, trackW int, v loader.View) {
	for i := range trackW {
		a.screen.SetContent(trackPadding+i, y, '─', nil, a.style(tcell.ColorGray))
	}

	for _, st := range v.Stages {
		r, s := '○', a.style(tcell.ColorGray)
		switch {
		case st.Index == v.StageIndex:
			r, s = '◆', a.style(tcell.ColorAqua).Bold(true)
		case st.Index < v.StageIndex:
			r, s = '●', a.style(tcell.ColorGreen)
		}
		a.screen.SetContent(trackPadding+trackX(st.Position, trackW), y, r, nil, s)
	}
}

func (a *App) drawSprite(x, y int, walking bool) {
	frame := spriteFrames[0]
	if walking {
		frame = spriteFrames[1]
	}

	for i, line := range frame {
		a.drawText(x-1, y+i, a.style(tcell.ColorOrange), line)
	}
}

func (a *App) drawResult() {
	w, h := a.screen.Size()
	r := a.result

	a.drawCentered(1, a.style(tcell.ColorGreen).Bold(true), "Audit complete: "+r.Domain)
	a.drawCentered(2, a.style(tcell.ColorGray), "Received "+printer.FormatTimestamp(r.ReceivedAt))

	y := 4
	maxY := h - 2
	for _, name := range r.SectionNames() {
		if y >= maxY {
			a.drawText(2, y, a.style(tcell.ColorGray), "…")
			break
		}
		a.drawText(2, y, a.style(tcell.ColorAqua).Bold(true), name)
		y++

		fields, ok := r.Sections[name].(map[string]any)
		if !ok {
			a.drawText(4, y, a.style(tcell.ColorWhite), truncate(printer.FormatValue(r.Sections[name]), w-6))
			y++
			continue
		}

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if y >= maxY {
				break
			}
			line := fmt.Sprintf("%s: %s", k, printer.FormatValue(fields[k]))
			a.drawText(4, y, a.style(tcell.ColorWhite), truncate(line, w-6))
			y++
		}
	}

	a.drawCentered(h-1, a.style(tcell.ColorGray), "n new audit   q quit")
}

func (a *App) drawError() {
	_, h := a.screen.Size()
	y := h/2 - 2

	a.drawCentered(y, a.style(tcell.ColorRed).Bold(true), failedTitle)
	a.drawCentered(y+2, a.style(tcell.ColorWhite), a.reason)
	a.drawCentered(h-1, a.style(tcell.ColorGray), "r try again   q quit")
}

func (a *App) drawText(x, y int, style tcell.Style, s string) {
	for i, r := range []rune(s) {
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *App) drawCentered(y int, style tcell.Style, s string) {
	w, _ := a.screen.Size()
	a.drawText(max((w-len([]rune(s)))/2, 0), y, style, s)
}

func trackX(pos float64, trackW int) int {
	return int(math.Round(pos / 100 * float64(trackW-1)))
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
