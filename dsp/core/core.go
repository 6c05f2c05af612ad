package core

import (
	"math"
	"sort"
)

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// MaxAbs returns the maximum absolute value in x, or 0 for an empty slice.
func MaxAbs(x []float64) float64 {
	peak := 0.0

	for _, v := range x {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
	}

	return peak
}

// Median3 returns the median of three values. NaN inputs are ignored;
// with no finite input the result is NaN.
func Median3(a, b, c float64) float64 {
	vals := make([]float64, 0, 3)

	for _, v := range [3]float64{a, b, c} {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}

	switch len(vals) {
	case 0:
		return math.NaN()
	case 1:
		return vals[0]
	case 2:
		return 0.5 * (vals[0] + vals[1])
	}

	lo := math.Min(vals[0], math.Min(vals[1], vals[2]))
	hi := math.Max(vals[0], math.Max(vals[1], vals[2]))

	return vals[0] + vals[1] + vals[2] - lo - hi
}

// MedianFilter3 applies a 3-tap median filter in-place.
// Edge samples keep their original value.
func MedianFilter3(x []float64) {
	if len(x) < 3 {
		return
	}

	prev := x[0]
	for i := 1; i < len(x)-1; i++ {
		m := Median3(prev, x[i], x[i+1])
		prev = x[i]
		x[i] = m
	}
}

// MeanFilter3 applies a 3-tap moving-average filter in-place.
// Edge samples keep their original value.
func MeanFilter3(x []float64) {
	if len(x) < 3 {
		return
	}

	prev := x[0]
	for i := 1; i < len(x)-1; i++ {
		m := (prev + x[i] + x[i+1]) / 3
		prev = x[i]
		x[i] = m
	}
}

// AbsQuantile returns the q-quantile (q in [0,1]) of the absolute values in x.
// Returns 0 for an empty slice.
func AbsQuantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return 0
	}

	q = Clamp(q, 0, 1)

	abs := make([]float64, len(x))
	for i, v := range x {
		abs[i] = math.Abs(v)
	}

	sort.Float64s(abs)

	pos := q * float64(len(abs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return abs[lo]
	}

	frac := pos - float64(lo)

	return abs[lo] + frac*(abs[hi]-abs[lo])
}

// ReflectPad returns x padded on both sides by pad samples mirrored around
// the first and last sample (the edge sample itself is not repeated).
// Pads longer than len(x)-1 fold repeatedly.
func ReflectPad(x []float64, pad int) []float64 {
	if pad <= 0 {
		out := make([]float64, len(x))
		copy(out, x)

		return out
	}

	if len(x) == 0 {
		return make([]float64, 2*pad)
	}

	out := make([]float64, len(x)+2*pad)
	copy(out[pad:], x)

	for i := range pad {
		out[pad-1-i] = x[reflectIndex(i+1, len(x))]
		out[pad+len(x)+i] = x[reflectIndex(len(x)-2-i, len(x))]
	}

	return out
}

// reflectIndex folds an out-of-range index back into [0, n) by mirroring
// around the boundaries without repeating the edge sample.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}

	period := 2 * (n - 1)

	i %= period
	if i < 0 {
		i += period
	}

	if i >= n {
		i = period - i
	}

	return i
}
