package chunk

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vc/dsp/core"
)

var (
	// ErrInvalidLayout indicates planner timing parameters that cannot
	// form valid chunks.
	ErrInvalidLayout = errors.New("chunk: query window must be shorter than the center interval and the center interval shorter than the maximum chunk length")
	// ErrInvalidRate indicates a non-positive sample rate or hop.
	ErrInvalidRate = errors.New("chunk: sample rate and hop must be positive")
)

// Default timing at the 16 kHz analysis rate, in seconds.
const (
	DefaultPadSeconds    = 1.0
	DefaultQuerySeconds  = 6.0
	DefaultCenterSeconds = 38.0
	DefaultMaxSeconds    = 41.0

	defaultSampleRate = 16000
	defaultHop        = 160
)

type config struct {
	sampleRate int
	hop        int
	padSec     float64
	querySec   float64
	centerSec  float64
	maxSec     float64
}

// Option configures a Planner.
type Option func(*config)

// WithSampleRate sets the analysis sample rate.
func WithSampleRate(rate int) Option {
	return func(cfg *config) { cfg.sampleRate = rate }
}

// WithHop sets the analysis hop length in samples. Cut points snap to
// hop multiples.
func WithHop(hop int) Option {
	return func(cfg *config) { cfg.hop = hop }
}

// WithPadding sets the reflective context padding per chunk, in seconds.
func WithPadding(sec float64) Option {
	return func(cfg *config) { cfg.padSec = sec }
}

// WithQueryWindow sets the half-width of the quiet-point search around
// each nominal cut, in seconds.
func WithQueryWindow(sec float64) Option {
	return func(cfg *config) { cfg.querySec = sec }
}

// WithCenterInterval sets the nominal spacing between cuts, in seconds.
func WithCenterInterval(sec float64) Option {
	return func(cfg *config) { cfg.centerSec = sec }
}

// WithMaxLength sets the signal length above which chunking engages, in
// seconds.
func WithMaxLength(sec float64) Option {
	return func(cfg *config) { cfg.maxSec = sec }
}

// Planner splits long signals into chunks cut at low-energy points so
// per-chunk processing artifacts land where they are least audible.
type Planner struct {
	sampleRate int
	hop        int
	pad        int
	query      int
	center     int
	max        int
}

// NewPlanner builds a planner from the 16 kHz defaults and the given
// options.
func NewPlanner(opts ...Option) (*Planner, error) {
	cfg := config{
		sampleRate: defaultSampleRate,
		hop:        defaultHop,
		padSec:     DefaultPadSeconds,
		querySec:   DefaultQuerySeconds,
		centerSec:  DefaultCenterSeconds,
		maxSec:     DefaultMaxSeconds,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.sampleRate <= 0 || cfg.hop <= 0 {
		return nil, ErrInvalidRate
	}

	p := &Planner{
		sampleRate: cfg.sampleRate,
		hop:        cfg.hop,
		pad:        int(cfg.padSec * float64(cfg.sampleRate)),
		query:      int(cfg.querySec * float64(cfg.sampleRate)),
		center:     int(cfg.centerSec * float64(cfg.sampleRate)),
		max:        int(cfg.maxSec * float64(cfg.sampleRate)),
	}

	if p.pad < 0 || p.query <= 0 || p.query >= p.center || p.center >= p.max {
		return nil, ErrInvalidLayout
	}

	return p, nil
}

// Pad returns the per-chunk context padding in samples at the analysis
// rate.
func (p *Planner) Pad() int {
	return p.pad
}

// PadTarget returns the padding converted to the given output rate.
func (p *Planner) PadTarget(rate int) int {
	return p.pad * rate / p.sampleRate
}

// MaxChunk returns the signal length in samples above which Plan starts
// cutting.
func (p *Planner) MaxChunk() int {
	return p.max
}

// Plan returns the cut points for pcm, in samples. Each cut is the
// quietest point within the query window around a multiple of the center
// interval, snapped down to a hop multiple. Cuts are strictly
// increasing; signals no longer than the maximum chunk length yield nil.
func (p *Planner) Plan(pcm []float64) []int {
	if len(pcm) <= p.max {
		return nil
	}

	sums := p.movingSums(pcm)

	var cuts []int

	last := -1

	for t := p.center; t < len(pcm); t += p.center {
		lo := t - p.query
		if lo < 0 {
			lo = 0
		}

		hi := t + p.query
		if hi > len(sums) {
			hi = len(sums)
		}

		if lo >= hi {
			continue
		}

		best := lo
		bestVal := math.Abs(sums[lo])

		for j := lo + 1; j < hi; j++ {
			if v := math.Abs(sums[j]); v < bestVal {
				bestVal = v
				best = j
			}
		}

		cut := best / p.hop * p.hop
		if cut > last {
			cuts = append(cuts, cut)
			last = cut
		}
	}

	return cuts
}

// movingSums computes the centered hop-length moving sum of pcm, so
// sums[i] reflects the local signal level around sample i.
func (p *Planner) movingSums(pcm []float64) []float64 {
	padded := core.ReflectPad(pcm, p.hop/2)
	sums := make([]float64, len(pcm))

	sum := 0.0
	for i := 0; i < p.hop && i < len(padded); i++ {
		sum += padded[i]
	}

	for i := range sums {
		sums[i] = sum

		if i+p.hop < len(padded) {
			sum += padded[i+p.hop] - padded[i]
		}
	}

	return sums
}
