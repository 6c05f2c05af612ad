package interp

// Lerp computes linear interpolation between a and b at frac in [0,1].
func Lerp(a, b, frac float64) float64 {
	return a + frac*(b-a)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// ResizeLinear resamples src to n points by linear interpolation and
// returns the result. Endpoints map onto endpoints. An empty src yields
// zeros; a single-sample src is broadcast.
func ResizeLinear(src []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)

	switch len(src) {
	case 0:
		return out
	case 1:
		for i := range out {
			out[i] = src[0]
		}

		return out
	}

	if n == 1 {
		out[0] = src[0]

		return out
	}

	step := float64(len(src)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step

		j := int(pos)
		if j >= len(src)-1 {
			out[i] = src[len(src)-1]

			continue
		}

		out[i] = Lerp(src[j], src[j+1], pos-float64(j))
	}

	return out
}

// UpsampleRows2x doubles the row count of a time-major matrix by linear
// interpolation between consecutive rows. The final row is duplicated.
// Rows are freshly allocated; src is not aliased.
func UpsampleRows2x(src [][]float64) [][]float64 {
	if len(src) == 0 {
		return nil
	}

	out := make([][]float64, 2*len(src))

	for t, row := range src {
		even := make([]float64, len(row))
		copy(even, row)
		out[2*t] = even

		odd := make([]float64, len(row))
		if t+1 < len(src) {
			next := src[t+1]
			for d := range row {
				odd[d] = 0.5 * (row[d] + next[d])
			}
		} else {
			copy(odd, row)
		}

		out[2*t+1] = odd
	}

	return out
}
