package pitch

import (
	"math"

	"github.com/cwbudde/algo-vc/dsp/core"
)

const (
	harmonicWindow      = 640
	harmonicThreshold   = 0.15
	harmonicFramePeriod = 10

	harmonicFastDecimation = 2
	harmonicFastWindow     = 320
	harmonicFastThreshold  = 0.2
)

// harmonic estimates f0 per frame from the cumulative mean normalized
// difference function at full signal resolution. Results are memoized
// when a cache is attached, and median-smoothed when the filter radius
// exceeds 2.
func (e *Estimator) harmonic(pcm []float64, frameCount int) ([]float64, error) {
	compute := func() ([]float64, error) {
		return e.differenceContour(pcm, frameCount, 1, harmonicWindow, harmonicThreshold), nil
	}

	var (
		f0  []float64
		err error
	)

	if e.cfg.cache != nil {
		key := Key{
			Hash:        HashWaveform(pcm),
			SampleRate:  e.cfg.sampleRate,
			F0Min:       e.cfg.f0Min,
			F0Max:       e.cfg.f0Max,
			FramePeriod: harmonicFramePeriod,
		}

		f0, err = e.cfg.cache.GetOrCompute(key, compute)
	} else {
		f0, err = compute()
	}

	if err != nil {
		return nil, err
	}

	// Cached slices are shared between callers.
	out := make([]float64, len(f0))
	copy(out, f0)

	if e.cfg.filterRadius > 2 {
		core.MedianFilter3(out)
	}

	return out, nil
}

// harmonicFast is a decimated variant of harmonic. The coarser time base
// makes it noisier, so its output is always median-smoothed.
func (e *Estimator) harmonicFast(pcm []float64, frameCount int) []float64 {
	f0 := e.differenceContour(pcm, frameCount, harmonicFastDecimation, harmonicFastWindow, harmonicFastThreshold)
	core.MedianFilter3(f0)

	return f0
}

// differenceContour runs a YIN-style search on every analysis frame:
// compute the difference function over the candidate lag range, apply
// cumulative mean normalization, and take the first dip below threshold
// (or the global minimum when no dip qualifies), refined parabolically.
func (e *Estimator) differenceContour(pcm []float64, frameCount, decimation, winSize int, threshold float64) []float64 {
	x := pcm
	if decimation > 1 {
		x = decimate(pcm, decimation)
	}

	rate := float64(e.cfg.sampleRate) / float64(decimation)
	hop := e.cfg.hop / decimation

	tauMin := int(rate / e.cfg.f0Max)
	if tauMin < 2 {
		tauMin = 2
	}

	tauMax := int(rate / e.cfg.f0Min)

	f0 := make([]float64, frameCount)
	diff := make([]float64, tauMax+1)

	for i := range frameCount {
		start := i*hop - winSize/2

		if !differenceFunction(diff, x, start, winSize, tauMax) {
			continue
		}

		cumulativeMeanNormalize(diff)

		tau := pickDip(diff, tauMin, tauMax, threshold)
		if tau == 0 {
			continue
		}

		refined := refineDip(diff, tau)
		freq := rate / refined

		if freq < e.cfg.f0Min || freq > e.cfg.f0Max {
			continue
		}

		f0[i] = freq
	}

	return f0
}

// differenceFunction fills diff[tau] with the squared difference between
// the frame at start and its copy shifted by tau. Reports false when the
// frame has no usable energy.
func differenceFunction(diff, x []float64, start, winSize, tauMax int) bool {
	energy := 0.0

	for tau := range diff {
		sum := 0.0

		for j := 0; j < winSize; j++ {
			a := sampleAt(x, start+j)
			b := sampleAt(x, start+j+tau)
			d := a - b
			sum += d * d

			if tau == 0 {
				energy += a * a
			}
		}

		diff[tau] = sum
	}

	return energy > 1e-10
}

// cumulativeMeanNormalize rewrites diff into the cumulative mean
// normalized difference function with d'(0) = 1.
func cumulativeMeanNormalize(diff []float64) {
	if len(diff) == 0 {
		return
	}

	diff[0] = 1

	runningSum := 0.0

	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]

		if runningSum > 0 {
			diff[tau] *= float64(tau) / runningSum
		} else {
			diff[tau] = 1
		}
	}
}

// pickDip returns the first local minimum below threshold within
// [tauMin, tauMax], falling back to the global minimum when that is
// still below twice the threshold. Zero means unvoiced.
func pickDip(diff []float64, tauMin, tauMax int, threshold float64) int {
	if tauMax >= len(diff) {
		tauMax = len(diff) - 1
	}

	bestTau := 0
	bestVal := math.MaxFloat64

	for tau := tauMin; tau <= tauMax; tau++ {
		v := diff[tau]

		if v < threshold {
			// Walk down to the bottom of this dip.
			for tau+1 <= tauMax && diff[tau+1] < v {
				tau++
				v = diff[tau]
			}

			return tau
		}

		if v < bestVal {
			bestVal = v
			bestTau = tau
		}
	}

	if bestVal < 2*threshold {
		return bestTau
	}

	return 0
}

// refineDip fits a parabola through the normalized difference values
// around lag tau and returns the sub-sample minimum position.
func refineDip(diff []float64, tau int) float64 {
	if tau <= 0 || tau+1 >= len(diff) {
		return float64(tau)
	}

	a := diff[tau-1]
	b := diff[tau]
	c := diff[tau+1]

	denom := a - 2*b + c
	if denom == 0 {
		return float64(tau)
	}

	delta := 0.5 * (a - c) / denom
	if delta > 1 || delta < -1 {
		return float64(tau)
	}

	return float64(tau) + delta
}

func decimate(x []float64, factor int) []float64 {
	out := make([]float64, 0, (len(x)+factor-1)/factor)
	for i := 0; i < len(x); i += factor {
		out = append(out, x[i])
	}

	return out
}

func sampleAt(x []float64, i int) float64 {
	if i < 0 || i >= len(x) {
		return 0
	}

	return x[i]
}
