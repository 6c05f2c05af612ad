package envelope

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vc/dsp/interp"
)

var (
	// ErrInvalidMix indicates a mix value outside [0, 1].
	ErrInvalidMix = errors.New("envelope: mix must be in [0, 1]")
	// ErrInvalidRate indicates a non-positive sample rate.
	ErrInvalidRate = errors.New("envelope: sample rates must be positive")
)

// envelopeFloor keeps the per-sample gain finite over silent stretches
// of the target.
const envelopeFloor = 1e-6

// Match rescales target in place so its loudness envelope moves toward
// the source's:
//
//	gain = rmsSource^(1-mix) * rmsTarget^(mix-1)
//
// mix 1 leaves the target untouched, mix 0 imposes the source envelope
// fully. Envelopes are measured with one-second frames at half-second
// hops and linearly resampled to the target length, so the signals may
// differ in rate and duration.
func Match(target []float64, targetRate int, source []float64, sourceRate int, mix float64) error {
	if mix < 0 || mix > 1 {
		return ErrInvalidMix
	}

	if targetRate <= 0 || sourceRate <= 0 {
		return ErrInvalidRate
	}

	if mix == 1 || len(target) == 0 || len(source) == 0 {
		return nil
	}

	src := interp.ResizeLinear(rmsEnvelope(source, sourceRate), len(target))
	tgt := interp.ResizeLinear(rmsEnvelope(target, targetRate), len(target))

	gains := make([]float64, len(target))
	for i := range gains {
		t := tgt[i]
		if t < envelopeFloor {
			t = envelopeFloor
		}

		gains[i] = math.Pow(src[i], 1-mix) * math.Pow(t, mix-1)
	}

	vecmath.MulBlockInPlace(target, gains)

	return nil
}

// rmsEnvelope measures the centered RMS of x with one-second frames and
// half-second hops. Frames hanging past the ends are zero filled.
func rmsEnvelope(x []float64, rate int) []float64 {
	frame := rate
	hop := rate / 2
	half := frame / 2

	count := 1 + len(x)/hop
	env := make([]float64, count)

	for i := range env {
		center := i * hop

		lo := center - half
		if lo < 0 {
			lo = 0
		}

		hi := center + half
		if hi > len(x) {
			hi = len(x)
		}

		sum := 0.0
		for j := lo; j < hi; j++ {
			sum += x[j] * x[j]
		}

		env[i] = math.Sqrt(sum / float64(frame))
	}

	return env
}
