package walker

// EaseInOut is the cubic ease-in/ease-out curve, t is clamped to [0,1].
func EaseInOut(t float64) float64 {
	t = max(0, min(t, 1))
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
