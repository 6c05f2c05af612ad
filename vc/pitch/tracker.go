package pitch

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-vc/dsp/core"
)

// Tracker is a neural pitch tracker backend. Track analyzes pcm at the
// given sample rate and returns one f0 and one periodicity value per hop
// of samples, processing at most batch frames per model invocation.
type Tracker interface {
	Track(ctx context.Context, pcm []float64, sampleRate, hop, batch int) (f0, periodicity []float64, err error)
}

const (
	trackerVoicingFloor   = 0.001
	trackerHiResThreshold = 0.1
)

// tracked runs the tracker at the configured tracker hop. Frames whose
// periodicity falls below a small floor are forced unvoiced.
func (e *Estimator) tracked(ctx context.Context, pcm []float64, frameCount int) ([]float64, error) {
	x := normalized(pcm)

	f0, pd, err := e.cfg.tracker.Track(ctx, x, e.cfg.sampleRate, e.cfg.trackerHop, e.cfg.trackerBatch)
	if err != nil {
		return nil, fmt.Errorf("pitch: tracker: %w", err)
	}

	if len(pd) != len(f0) {
		return nil, fmt.Errorf("pitch: tracker returned %d f0 frames but %d periodicity frames", len(f0), len(pd))
	}

	for i := range f0 {
		if pd[i] < trackerVoicingFloor {
			f0[i] = 0
		}
	}

	return f0, nil
}

// trackedHiRes runs the tracker at the analysis hop and smooths both
// outputs before gating voicing on periodicity.
func (e *Estimator) trackedHiRes(ctx context.Context, pcm []float64, frameCount int) ([]float64, error) {
	x := normalized(pcm)

	f0, pd, err := e.cfg.tracker.Track(ctx, x, e.cfg.sampleRate, e.cfg.hop, e.cfg.trackerBatch)
	if err != nil {
		return nil, fmt.Errorf("pitch: tracker: %w", err)
	}

	if len(pd) != len(f0) {
		return nil, fmt.Errorf("pitch: tracker returned %d f0 frames but %d periodicity frames", len(f0), len(pd))
	}

	core.MedianFilter3(pd)
	core.MeanFilter3(f0)

	for i := range f0 {
		if pd[i] < trackerHiResThreshold {
			f0[i] = 0
		}
	}

	return f0, nil
}
