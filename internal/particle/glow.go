package particle

const (
	idleIntensity    = 0.35
	engagedIntensity = 1.0
	idleBlur         = 2.0
	engagedBlur      = 10.0
)

// Glow is the rendering intensity applied to every particle of a frame.
type Glow struct {
	// Intensity is the opacity in [0,1].
	Intensity float64
	// Blur is the glow radius.
	Blur float64
}

// GlowFor returns the glow for an engagement signal. Engagement is clamped to
// [0,1], use 0 or 1 for a binary signal.
func GlowFor(engagement float64) Glow {
	e := max(0, min(engagement, 1))
	return Glow{
		Intensity: idleIntensity + (engagedIntensity-idleIntensity)*e,
		Blur:      idleBlur + (engagedBlur-idleBlur)*e,
	}
}

// Engagement converts a boolean signal into an engagement value.
func Engagement(engaged bool) float64 {
	if engaged {
		return 1
	}
	return 0
}
