package num

// AxisIndex locates x on a strictly ascending axis for linear interpolation.
// It returns the left index i and the weight w in [0, 1] such that the
// interpolated value is (1-w)*axis[i] + w*axis[i+1]. Values outside the axis
// clamp to the first or last segment with w pinned to 0 or 1.
func AxisIndex(axis []float64, x float64) (int, float64) {
	n := len(axis)
	switch n {
	case 0:
		return 0, 0
	case 1:
		return 0, 0
	}

	if x <= axis[0] {
		return 0, 0
	}
	if x >= axis[n-1] {
		return n - 2, 1
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if axis[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}

	span := axis[lo+1] - axis[lo]
	if span <= 0 {
		return lo, 0
	}
	return lo, (x - axis[lo]) / span
}

// Lerp interpolates linearly between a and b with weight w.
func Lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}
