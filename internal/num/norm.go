package num

import "math"

const (
	sqrt2   = math.Sqrt2
	sqrt2Pi = 2.5066282746310002
)

// NormCDF returns the standard normal cumulative distribution at x.
// Beyond |x| > 6 the tails are saturated to exactly 0 or 1.
func NormCDF(x float64) float64 {
	if x > 6 {
		return 1
	}
	if x < -6 {
		return 0
	}
	return 0.5 * math.Erfc(-x/sqrt2)
}

// NormPDF returns the standard normal density at x.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
