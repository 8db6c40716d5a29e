package render

// Easing maps normalized time in [0,1] to animation progress.
type Easing func(t float64) float64

const (
	b1 = 4.0 / 11
	b2 = 6.0 / 11
	b3 = 8.0 / 11
	b4 = 3.0 / 4
	b5 = 9.0 / 11
	b6 = 10.0 / 11
	b7 = 15.0 / 16
	b8 = 21.0 / 22
	b9 = 63.0 / 64
	b0 = 1 / b1 / b1
)

// BounceOut settles at 1 after three decreasing rebounds.
func BounceOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < b1:
		return b0 * t * t
	case t < b3:
		t -= b2
		return b0*t*t + b4
	case t < b6:
		t -= b5
		return b0*t*t + b7
	default:
		t -= b8
		return b0*t*t + b9
	}
}

// Sample evaluates e at n+1 evenly spaced times, returning the times and
// the eased progress at each.
func Sample(e Easing, n int) (times, progress []float64) {
	if n < 1 {
		n = 1
	}
	times = make([]float64, n+1)
	progress = make([]float64, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		times[i] = t
		progress[i] = e(t)
	}
	return times, progress
}
