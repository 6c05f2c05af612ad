package pitch

import (
	"context"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-vc/dsp/core"
)

// Default analysis parameters at the internal processing rate.
const (
	DefaultSampleRate = 16000
	DefaultHop        = 160
	DefaultF0Min      = 50
	DefaultF0Max      = 1100

	defaultTrackerHop   = 160
	defaultTrackerBatch = 512
)

type config struct {
	sampleRate   int
	hop          int
	f0Min        float64
	f0Max        float64
	filterRadius int
	trackerHop   int
	trackerBatch int
	tracker      Tracker
	cache        *Cache
}

// Option configures an Estimator.
type Option func(*config)

// WithSampleRate sets the analysis sample rate.
func WithSampleRate(rate int) Option {
	return func(cfg *config) {
		if rate > 0 {
			cfg.sampleRate = rate
		}
	}
}

// WithHop sets the analysis hop length in samples.
func WithHop(hop int) Option {
	return func(cfg *config) {
		if hop > 0 {
			cfg.hop = hop
		}
	}
}

// WithBounds sets the frequency search range in Hz.
func WithBounds(f0Min, f0Max float64) Option {
	return func(cfg *config) {
		if f0Min > 0 && f0Max > f0Min {
			cfg.f0Min = f0Min
			cfg.f0Max = f0Max
		}
	}
}

// WithFilterRadius sets the post-filter radius. Values above 2 enable
// 3-tap median smoothing of the harmonic method's output.
func WithFilterRadius(radius int) Option {
	return func(cfg *config) {
		if radius >= 0 {
			cfg.filterRadius = radius
		}
	}
}

// WithTracker injects a neural tracker backend for MethodTracker and
// MethodTrackerHiRes.
func WithTracker(t Tracker) Option {
	return func(cfg *config) {
		cfg.tracker = t
	}
}

// WithTrackerHop sets the hop length used by MethodTracker. Lower values
// trade speed for pitch accuracy.
func WithTrackerHop(hop int) Option {
	return func(cfg *config) {
		if hop > 0 {
			cfg.trackerHop = hop
		}
	}
}

// WithTrackerBatch sets the frame batch size passed to the tracker.
func WithTrackerBatch(batch int) Option {
	return func(cfg *config) {
		if batch > 0 {
			cfg.trackerBatch = batch
		}
	}
}

// WithCache attaches a contour cache used by MethodHarmonic.
func WithCache(c *Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// Estimator computes fundamental-frequency contours from waveforms using
// a selectable method or a median-fused hybrid of methods.
type Estimator struct {
	cfg config
}

// NewEstimator creates an estimator with the given options applied to the
// 16 kHz / 160-sample-hop defaults.
func NewEstimator(opts ...Option) *Estimator {
	cfg := config{
		sampleRate:   DefaultSampleRate,
		hop:          DefaultHop,
		f0Min:        DefaultF0Min,
		f0Max:        DefaultF0Max,
		trackerHop:   defaultTrackerHop,
		trackerBatch: defaultTrackerBatch,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Estimator{cfg: cfg}
}

// Bounds returns the configured frequency search range.
func (e *Estimator) Bounds() (f0Min, f0Max float64) {
	return e.cfg.f0Min, e.cfg.f0Max
}

// Estimate computes a contour of exactly frameCount frames using a single
// method. Unrecognized methods and missing tracker backends are rejected
// before any computation.
func (e *Estimator) Estimate(ctx context.Context, pcm []float64, frameCount int, method Method) (Contour, error) {
	if err := e.check(method); err != nil {
		return nil, err
	}

	if frameCount <= 0 {
		return Contour{}, nil
	}

	raw, err := e.run(ctx, pcm, frameCount, method)
	if err != nil {
		return nil, err
	}

	return Contour(fitContour(raw, frameCount)), nil
}

// EstimateHybrid runs every listed method and fuses the aligned contours
// by per-frame median. A single-method selection passes its contour
// through unchanged.
func (e *Estimator) EstimateHybrid(ctx context.Context, pcm []float64, frameCount int, methods []Method) (Contour, error) {
	if len(methods) == 0 {
		return nil, ErrNoMethod
	}

	for _, m := range methods {
		if err := e.check(m); err != nil {
			return nil, err
		}
	}

	if len(methods) == 1 {
		return e.Estimate(ctx, pcm, frameCount, methods[0])
	}

	if frameCount <= 0 {
		return Contour{}, nil
	}

	stack := make([][]float64, 0, len(methods))

	for _, m := range methods {
		raw, err := e.run(ctx, pcm, frameCount, m)
		if err != nil {
			return nil, err
		}

		// The harmonic method's first frame reads ahead of the signal
		// start and skews the fused median there.
		if m == MethodHarmonic && len(raw) > 1 {
			raw = raw[1:]
		}

		stack = append(stack, fitContour(raw, frameCount))
	}

	fused := make([]float64, frameCount)
	vals := make([]float64, len(stack))

	for i := range fused {
		for j, contour := range stack {
			vals[j] = contour[i]
		}

		fused[i] = median(vals)
	}

	return Contour(fused), nil
}

func (e *Estimator) check(method Method) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}

	if method.NeedsTracker() && e.cfg.tracker == nil {
		return fmt.Errorf("%w: %s", ErrTrackerRequired, method)
	}

	return nil
}

func (e *Estimator) run(ctx context.Context, pcm []float64, frameCount int, method Method) ([]float64, error) {
	switch method {
	case MethodAutocorrelation:
		return e.autocorrelation(pcm, frameCount)
	case MethodHarmonic:
		return e.harmonic(pcm, frameCount)
	case MethodHarmonicFast:
		return e.harmonicFast(pcm, frameCount), nil
	case MethodTracker:
		return e.tracked(ctx, pcm, frameCount)
	case MethodTrackerHiRes:
		return e.trackedHiRes(ctx, pcm, frameCount)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}
}

// normalized returns a copy of pcm scaled so its 0.999 absolute quantile
// becomes 1, matching the conditioning the neural and autocorrelation
// methods expect. Silent input is returned as a plain copy.
func normalized(pcm []float64) []float64 {
	out := make([]float64, len(pcm))
	copy(out, pcm)

	q := core.AbsQuantile(pcm, 0.999)
	if q > 0 {
		inv := 1 / q
		for i := range out {
			out[i] *= inv
		}
	}

	return out
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return 0.5 * (sorted[mid-1] + sorted[mid])
}
