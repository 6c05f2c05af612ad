package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vc/dsp/interp"
	"github.com/cwbudde/algo-vc/vc/index"
)

var (
	// ErrNilModel indicates a missing extractor or generator.
	ErrNilModel = errors.New("convert: extractor and generator are required")
	// ErrPitchMismatch indicates coarse and float pitch slices of
	// different lengths.
	ErrPitchMismatch = errors.New("convert: coarse and float pitch must have equal length")
)

// protectDisabled marks the protect strength at which unvoiced-frame
// blending is off.
const protectDisabled = 0.5

type config struct {
	index      *index.Index
	indexRatio float64
	protect    float64
	speaker    int
	hop        int
}

// Option configures a Unit.
type Option func(*config)

// WithIndex attaches a feature retrieval index.
func WithIndex(x *index.Index) Option {
	return func(cfg *config) { cfg.index = x }
}

// WithIndexRatio sets the retrieval blend ratio in [0, 1]. Zero disables
// retrieval.
func WithIndexRatio(ratio float64) Option {
	return func(cfg *config) { cfg.indexRatio = ratio }
}

// WithProtect sets the consonant protection strength. Unvoiced frames
// are pulled back toward their pre-retrieval features with this weight;
// 0.5 and above disables the blend.
func WithProtect(strength float64) Option {
	return func(cfg *config) { cfg.protect = strength }
}

// WithSpeaker selects the target speaker id passed to the generator.
func WithSpeaker(id int) Option {
	return func(cfg *config) { cfg.speaker = id }
}

// WithHop sets the analysis hop length in samples.
func WithHop(hop int) Option {
	return func(cfg *config) {
		if hop > 0 {
			cfg.hop = hop
		}
	}
}

// Unit converts one padded audio chunk at a time: content features are
// extracted, optionally blended with retrieved target-speaker features,
// upsampled to the pitch frame rate, and rendered by the generator.
type Unit struct {
	extractor FeatureExtractor
	generator Generator
	cfg       config
}

// NewUnit builds a conversion unit around an extractor and generator.
func NewUnit(extractor FeatureExtractor, generator Generator, opts ...Option) (*Unit, error) {
	if extractor == nil || generator == nil {
		return nil, ErrNilModel
	}

	cfg := config{
		index:   index.Passthrough(),
		protect: protectDisabled,
		hop:     160,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.index == nil {
		cfg.index = index.Passthrough()
	}

	return &Unit{extractor: extractor, generator: generator, cfg: cfg}, nil
}

// SampleRate returns the generator's output sample rate.
func (u *Unit) SampleRate() int {
	return u.generator.SampleRate()
}

// Convert renders one chunk of 16 kHz audio in the target voice. The
// coarse and pitch slices carry per-frame conditioning for the chunk and
// may both be nil for pitchless generators. The returned audio keeps the
// chunk's padding; callers trim it.
func (u *Unit) Convert(ctx context.Context, pcm []float64, coarse []int32, pitch []float64) ([]float64, error) {
	if len(coarse) != len(pitch) {
		return nil, fmt.Errorf("%w: %d coarse, %d float", ErrPitchMismatch, len(coarse), len(pitch))
	}

	feats, err := u.extractor.Extract(ctx, pcm)
	if err != nil {
		return nil, fmt.Errorf("convert: extract features: %w", err)
	}

	retrieving := u.cfg.index.Available() && u.cfg.indexRatio > 0
	protecting := retrieving && len(pitch) > 0 && u.cfg.protect < protectDisabled

	var pre [][]float64
	if protecting {
		pre = copyRows(feats)
	}

	if retrieving {
		if err := u.cfg.index.Blend(feats, u.cfg.indexRatio); err != nil {
			return nil, fmt.Errorf("convert: retrieval blend: %w", err)
		}
	}

	feats = interp.UpsampleRows2x(feats)
	if protecting {
		pre = interp.UpsampleRows2x(pre)
	}

	frames := len(pcm) / u.cfg.hop
	if frames > len(feats) {
		frames = len(feats)
	}

	if len(pitch) > 0 && frames > len(pitch) {
		frames = len(pitch)
	}

	feats = feats[:frames]

	if len(coarse) > frames {
		coarse = coarse[:frames]
		pitch = pitch[:frames]
	}

	if protecting {
		u.protectUnvoiced(feats, pre[:frames], pitch)
	}

	audio, err := u.generator.Infer(ctx, feats, coarse, pitch, u.cfg.speaker)
	if err != nil {
		return nil, fmt.Errorf("convert: generator: %w", err)
	}

	return audio, nil
}

// protectUnvoiced pulls unvoiced frames back toward their pre-retrieval
// features so retrieval cannot smear consonants. Voiced frames keep the
// blended features untouched.
func (u *Unit) protectUnvoiced(feats, pre [][]float64, pitch []float64) {
	n := len(feats)
	if len(pitch) < n {
		n = len(pitch)
	}

	w := u.cfg.protect

	for i := range n {
		if pitch[i] >= 1 {
			continue
		}

		row := feats[i]
		preRow := pre[i]

		for j := range row {
			row[j] = row[j]*w + preRow[j]*(1-w)
		}
	}
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}

	return out
}
