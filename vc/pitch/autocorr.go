package pitch

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-vc/dsp/core"
	"github.com/cwbudde/algo-vc/dsp/window"
)

const (
	autocorrWinSize   = 960
	autocorrFFTSize   = 2048
	autocorrThreshold = 0.6
)

// autocorrelation estimates f0 per frame from the windowed, normalized
// autocorrelation of the signal, corrected by the window's own
// autocorrelation and refined by parabolic interpolation around the peak.
func (e *Estimator) autocorrelation(pcm []float64, frameCount int) ([]float64, error) {
	plan, err := algofft.NewPlan64(autocorrFFTSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: autocorrelation FFT plan: %w", err)
	}

	coeffs := window.Generate(window.TypeHann, autocorrWinSize)
	if coeffs == nil {
		return nil, fmt.Errorf("pitch: window generation failed for size %d", autocorrWinSize)
	}

	winAC, err := fftAutocorr(plan, coeffs)
	if err != nil {
		return nil, err
	}

	x := normalized(pcm)

	tauMin := int(float64(e.cfg.sampleRate) / e.cfg.f0Max)
	if tauMin < 2 {
		tauMin = 2
	}

	tauMax := int(float64(e.cfg.sampleRate) / e.cfg.f0Min)
	if tauMax > autocorrWinSize/2 {
		tauMax = autocorrWinSize / 2
	}

	frame := make([]float64, autocorrWinSize)
	vals := make([]float64, tauMax+1)
	f0 := make([]float64, frameCount)

	for i := range frameCount {
		center := i * e.cfg.hop

		extractFrame(frame, x, center-autocorrWinSize/2)
		removeMean(frame)

		for j := range frame {
			frame[j] *= coeffs[j]
		}

		r, err := fftAutocorr(plan, frame)
		if err != nil {
			return nil, err
		}

		if r[0] <= 0 || winAC[0] <= 0 {
			continue
		}

		bestTau := 0
		bestVal := 0.0

		for tau := tauMin; tau <= tauMax; tau++ {
			vals[tau] = 0
			if winAC[tau] <= 0 {
				continue
			}

			vals[tau] = (r[tau] / r[0]) / (winAC[tau] / winAC[0])
			if vals[tau] > bestVal {
				bestVal = vals[tau]
				bestTau = tau
			}
		}

		if bestTau == 0 || bestVal < autocorrThreshold {
			continue
		}

		// Period multiples of the true lag score within noise of the
		// peak; prefer the shortest near-equal lag over an octave drop.
		for tau := tauMin; tau < bestTau; tau++ {
			if vals[tau] >= 0.99*bestVal {
				bestTau = tau

				break
			}
		}

		tau := refinePeak(r, bestTau)
		freq := float64(e.cfg.sampleRate) / tau

		f0[i] = core.Clamp(freq, e.cfg.f0Min, e.cfg.f0Max)
	}

	return f0, nil
}

// fftAutocorr computes the raw autocorrelation of x via the power
// spectrum. Lags up to half the transform size are meaningful.
func fftAutocorr(plan *algofft.Plan[complex128], x []float64) ([]float64, error) {
	buf := make([]complex128, autocorrFFTSize)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}

	spec := make([]complex128, autocorrFFTSize)
	if err := plan.Forward(spec, buf); err != nil {
		return nil, fmt.Errorf("pitch: forward FFT: %w", err)
	}

	for i, c := range spec {
		m := real(c)*real(c) + imag(c)*imag(c)
		spec[i] = complex(m, 0)
	}

	if err := plan.Inverse(buf, spec); err != nil {
		return nil, fmt.Errorf("pitch: inverse FFT: %w", err)
	}

	r := make([]float64, autocorrFFTSize/2)
	for i := range r {
		r[i] = real(buf[i])
	}

	return r, nil
}

// extractFrame copies len(dst) samples of x starting at offset start,
// zero-filling where the frame extends past either end of x.
func extractFrame(dst, x []float64, start int) {
	for i := range dst {
		j := start + i
		if j >= 0 && j < len(x) {
			dst[i] = x[j]
		} else {
			dst[i] = 0
		}
	}
}

func removeMean(frame []float64) {
	if len(frame) == 0 {
		return
	}

	sum := 0.0
	for _, v := range frame {
		sum += v
	}

	mean := sum / float64(len(frame))
	for i := range frame {
		frame[i] -= mean
	}
}

// refinePeak fits a parabola through the autocorrelation values around
// lag tau and returns the sub-sample peak position.
func refinePeak(r []float64, tau int) float64 {
	if tau <= 0 || tau+1 >= len(r) {
		return float64(tau)
	}

	a := r[tau-1]
	b := r[tau]
	c := r[tau+1]

	denom := a - 2*b + c
	if denom == 0 {
		return float64(tau)
	}

	delta := 0.5 * (a - c) / denom
	if math.Abs(delta) > 1 {
		return float64(tau)
	}

	return float64(tau) + delta
}
