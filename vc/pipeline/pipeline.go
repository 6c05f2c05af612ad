package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-vc/dsp/core"
	"github.com/cwbudde/algo-vc/dsp/filter/biquad"
	"github.com/cwbudde/algo-vc/dsp/filter/design/pass"
	"github.com/cwbudde/algo-vc/dsp/resample"
	"github.com/cwbudde/algo-vc/vc/chunk"
	"github.com/cwbudde/algo-vc/vc/convert"
	"github.com/cwbudde/algo-vc/vc/envelope"
	"github.com/cwbudde/algo-vc/vc/index"
	"github.com/cwbudde/algo-vc/vc/pitch"
)

// Internal processing rate and analysis hop. Models consume audio at
// this rate regardless of the delivery rate.
const (
	InternalRate = 16000
	Hop          = 160
)

const (
	highpassHz    = 48
	highpassOrder = 5
	peakCeiling   = 0.99
	quantScale    = 32768

	// Chunks are padded to the extractor's frame granularity of two
	// hops so feature and pitch frame counts stay aligned.
	featureAlign = 2 * Hop
)

type config struct {
	index   *index.Index
	tracker pitch.Tracker
	cache   *pitch.Cache
	planner *chunk.Planner
	logger  *slog.Logger
}

// Option configures a Pipeline.
type Option func(*config)

// WithIndex attaches a speaker feature index for retrieval blending.
func WithIndex(x *index.Index) Option {
	return func(cfg *config) { cfg.index = x }
}

// WithTracker injects a neural pitch tracker backend.
func WithTracker(t pitch.Tracker) Option {
	return func(cfg *config) { cfg.tracker = t }
}

// WithCache attaches a pitch contour cache shared across runs.
func WithCache(c *pitch.Cache) Option {
	return func(cfg *config) { cfg.cache = c }
}

// WithPlanner overrides the default chunk planner.
func WithPlanner(p *chunk.Planner) Option {
	return func(cfg *config) { cfg.planner = p }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// Pipeline converts whole recordings: it filters and segments the input,
// estimates pitch once over the padded signal, renders each chunk
// through a conversion unit, and reassembles, loudness-matches, and
// quantizes the result.
type Pipeline struct {
	extractor convert.FeatureExtractor
	generator convert.Generator
	cfg       config
}

// New builds a pipeline around a feature extractor and generator.
func New(extractor convert.FeatureExtractor, generator convert.Generator, opts ...Option) (*Pipeline, error) {
	if extractor == nil || generator == nil {
		return nil, convert.ErrNilModel
	}

	cfg := config{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.planner == nil {
		planner, err := chunk.NewPlanner()
		if err != nil {
			return nil, err
		}

		cfg.planner = planner
	}

	if cfg.index == nil {
		cfg.index = index.Passthrough()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Pipeline{extractor: extractor, generator: generator, cfg: cfg}, nil
}

// Process converts a 16 kHz waveform under the given context and returns
// 16-bit PCM at the context's output rate. Empty input yields empty
// output. Cancellation is honored between chunks.
func (p *Pipeline) Process(ctx context.Context, cc Context, pcm []float64) ([]int16, error) {
	genRate := p.generator.SampleRate()

	if err := cc.Validate(genRate); err != nil {
		return nil, err
	}

	if len(pcm) == 0 {
		return []int16{}, nil
	}

	filtered := make([]float64, len(pcm))
	copy(filtered, pcm)

	hp := biquad.NewChain(pass.ButterworthHP(highpassHz, highpassOrder, InternalRate))
	hp.ProcessZeroPhase(filtered)

	cuts := p.cfg.planner.Plan(filtered)
	pad := p.cfg.planner.Pad()
	padTarget := p.cfg.planner.PadTarget(genRate)
	padded := core.ReflectPad(filtered, pad)

	p.cfg.logger.Debug("conversion planned",
		"samples", len(pcm), "chunks", len(cuts)+1, "pad", pad)

	var (
		contour pitch.Contour
		coarse  []int32
	)

	if cc.PitchConditioning {
		est := p.estimator(cc)

		var err error

		contour, err = est.EstimateHybrid(ctx, padded, len(padded)/Hop, cc.Methods)
		if err != nil {
			return nil, err
		}

		contour.Shift(cc.TransposeSemitones)

		if len(cc.ManualContour) > 0 {
			contour.ReplaceSegment(pad/Hop, cc.ManualContour)
		}

		f0Min, f0Max := est.Bounds()
		coarse = contour.Coarse(f0Min, f0Max)
	}

	unit, err := convert.NewUnit(p.extractor, p.generator,
		convert.WithIndex(p.cfg.index),
		convert.WithIndexRatio(cc.IndexRate),
		convert.WithProtect(cc.Protect),
		convert.WithSpeaker(cc.SpeakerID),
		convert.WithHop(Hop),
	)
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, len(pcm)*genRate/InternalRate)
	start := 0

	for _, end := range append(cuts, len(pcm)) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		padEnd := end + 2*pad + Hop
		if end == len(pcm) {
			padEnd = len(padded)
		}

		seg := alignedChunk(padded, start, padEnd)

		var (
			segCoarse []int32
			segPitch  []float64
		)

		if cc.PitchConditioning && start/Hop < len(contour) {
			segCoarse = coarse[start/Hop:]
			segPitch = contour[start/Hop:]
		}

		rendered, err := unit.Convert(ctx, seg, segCoarse, segPitch)
		if err != nil {
			return nil, fmt.Errorf("pipeline: chunk at sample %d: %w", start, err)
		}

		want := (end - start) * genRate / InternalRate
		out = append(out, trimChunk(rendered, padTarget, want)...)

		start = end
	}

	if cc.RMSMixRate != 1 {
		if err := envelope.Match(out, genRate, filtered, InternalRate, cc.RMSMixRate); err != nil {
			return nil, err
		}
	}

	if cc.OutputRate != genRate {
		r, err := resample.NewForRates(float64(genRate), float64(cc.OutputRate))
		if err != nil {
			return nil, fmt.Errorf("pipeline: resample %d -> %d: %w", genRate, cc.OutputRate, err)
		}

		out = r.Process(out)
	}

	return quantize(out), nil
}

func (p *Pipeline) estimator(cc Context) *pitch.Estimator {
	opts := []pitch.Option{
		pitch.WithFilterRadius(cc.FilterRadius),
	}

	if p.cfg.tracker != nil {
		opts = append(opts, pitch.WithTracker(p.cfg.tracker))
	}

	if cc.TrackerHop > 0 {
		opts = append(opts, pitch.WithTrackerHop(cc.TrackerHop))
	}

	if p.cfg.cache != nil {
		opts = append(opts, pitch.WithCache(p.cfg.cache))
	}

	return pitch.NewEstimator(opts...)
}

// alignedChunk copies padded[from:to] into a buffer rounded up to the
// feature frame granularity, extending with later context samples where
// available and zeros past the signal end. The extension only adds
// context; the extra output is trimmed away by the caller.
func alignedChunk(padded []float64, from, to int) []float64 {
	n := to - from
	if rem := n % featureAlign; rem != 0 {
		n += featureAlign - rem
	}

	seg := make([]float64, n)

	avail := len(padded) - from
	if avail > n {
		avail = n
	}

	copy(seg, padded[from:from+avail])

	return seg
}

// trimChunk drops the rendered context padding and caps the chunk at its
// exact positional contribution so concatenation neither duplicates nor
// loses samples at cut points.
func trimChunk(rendered []float64, padTarget, want int) []float64 {
	lo := padTarget
	if lo > len(rendered) {
		lo = len(rendered)
	}

	hi := lo + want
	if hi > len(rendered) {
		hi = len(rendered)
	}

	return rendered[lo:hi]
}

// quantize converts to 16-bit integers, first normalizing the peak down
// to the headroom ceiling when the signal would clip.
func quantize(x []float64) []int16 {
	scale := float64(quantScale)

	if peak := core.MaxAbs(x); peak/peakCeiling > 1 {
		scale /= peak / peakCeiling
	}

	out := make([]int16, len(x))

	for i, v := range x {
		s := v * scale

		if s > quantScale-1 {
			s = quantScale - 1
		}

		if s < -quantScale {
			s = -quantScale
		}

		out[i] = int16(s)
	}

	return out
}
