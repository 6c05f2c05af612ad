package pitch

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vc/dsp/interp"
)

// Contour is a per-frame fundamental frequency sequence in Hz.
// Unvoiced frames hold 0.
type Contour []float64

// Shift transposes the contour by the given number of semitones in-place.
// Unvoiced frames (0 Hz) are unaffected since scaling preserves zero.
func (c Contour) Shift(semitones int) {
	if semitones == 0 || len(c) == 0 {
		return
	}

	factor := math.Pow(2, float64(semitones)/12)
	vecmath.ScaleBlock(c, c, factor)
}

// Coarse maps each frequency onto the bounded integer scale [1,255] via a
// mel-scale transform over [f0Min, f0Max]. Unvoiced frames map to 1.
func (c Contour) Coarse(f0Min, f0Max float64) []int32 {
	melMin := hzToMel(f0Min)
	melMax := hzToMel(f0Max)

	out := make([]int32, len(c))

	for i, f := range c {
		if f <= 0 || math.IsNaN(f) {
			out[i] = 1

			continue
		}

		mel := hzToMel(f)
		v := (mel-melMin)*254/(melMax-melMin) + 1

		if v < 1 {
			v = 1
		}

		if v > 255 {
			v = 255
		}

		out[i] = int32(math.Round(v))
	}

	return out
}

// ReplaceSegment overwrites the contour starting at frame start with the
// given values, clipped to the contour bounds.
func (c Contour) ReplaceSegment(start int, values []float64) {
	if start < 0 {
		values = values[min(-start, len(values)):]
		start = 0
	}

	for i, v := range values {
		if start+i >= len(c) {
			return
		}

		c[start+i] = v
	}
}

func hzToMel(f float64) float64 {
	return 1127 * math.Log(1+f/700)
}

// fitContour sanitizes a raw method output to exactly frameCount frames:
// NaN values become 0, short contours are linearly interpolated, long
// contours are truncated.
func fitContour(f0 []float64, frameCount int) []float64 {
	for i, v := range f0 {
		if math.IsNaN(v) {
			f0[i] = 0
		}
	}

	switch {
	case len(f0) == frameCount:
		return f0
	case len(f0) > frameCount:
		return f0[:frameCount]
	default:
		return interp.ResizeLinear(f0, frameCount)
	}
}
