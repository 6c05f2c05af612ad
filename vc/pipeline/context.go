package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vc/vc/pitch"
)

// ErrInvalidContext indicates conversion parameters outside their valid
// ranges. Validation happens before any audio is touched.
var ErrInvalidContext = errors.New("pipeline: invalid conversion context")

// Context carries the caller-chosen parameters for one conversion run.
// The zero value is not valid; at least one pitch method is required
// when pitch conditioning is on.
type Context struct {
	// TransposeSemitones shifts the pitch contour, any integer.
	TransposeSemitones int

	// Methods selects the pitch estimation method, or several for
	// median-fused hybrid estimation.
	Methods []pitch.Method

	// IndexRate blends retrieved speaker features into the content
	// features, in [0, 1]. Zero disables retrieval.
	IndexRate float64

	// FilterRadius above 2 enables median smoothing of the harmonic
	// pitch method.
	FilterRadius int

	// RMSMixRate moves the output loudness envelope between the
	// source's (0) and the generator's own (1).
	RMSMixRate float64

	// Protect pulls unvoiced frames back toward pre-retrieval features,
	// in [0, 0.5). 0.5 disables protection.
	Protect float64

	// OutputRate is the delivered sample rate. It must be at least
	// 16000 unless it equals the generator rate, which skips resampling.
	OutputRate int

	// TrackerHop overrides the neural tracker hop length; 0 keeps the
	// default.
	TrackerHop int

	// SpeakerID selects the target speaker in multi-speaker generators.
	SpeakerID int

	// PitchConditioning enables the pitch path. When off, the generator
	// is invoked without pitch and transposition has no effect.
	PitchConditioning bool

	// ManualContour, when non-empty, overwrites the estimated contour
	// frame by frame from the start of the unpadded signal. Values are
	// Hz at the analysis frame rate and are not transposed.
	ManualContour []float64
}

// Validate checks all parameter ranges against the generator's native
// sample rate.
func (c *Context) Validate(generatorRate int) error {
	if c.PitchConditioning {
		if len(c.Methods) == 0 {
			return fmt.Errorf("%w: %v", ErrInvalidContext, pitch.ErrNoMethod)
		}

		for _, m := range c.Methods {
			if !m.Valid() {
				return fmt.Errorf("%w: unknown pitch method %d", ErrInvalidContext, int(m))
			}
		}
	}

	if c.IndexRate < 0 || c.IndexRate > 1 {
		return fmt.Errorf("%w: index rate %v outside [0, 1]", ErrInvalidContext, c.IndexRate)
	}

	if c.RMSMixRate < 0 || c.RMSMixRate > 1 {
		return fmt.Errorf("%w: rms mix rate %v outside [0, 1]", ErrInvalidContext, c.RMSMixRate)
	}

	if c.Protect < 0 || c.Protect >= 0.5 {
		return fmt.Errorf("%w: protect %v outside [0, 0.5)", ErrInvalidContext, c.Protect)
	}

	if c.FilterRadius < 0 {
		return fmt.Errorf("%w: negative filter radius %d", ErrInvalidContext, c.FilterRadius)
	}

	if c.TrackerHop < 0 {
		return fmt.Errorf("%w: negative tracker hop %d", ErrInvalidContext, c.TrackerHop)
	}

	if c.OutputRate <= 0 {
		return fmt.Errorf("%w: output rate %d", ErrInvalidContext, c.OutputRate)
	}

	if c.OutputRate != generatorRate && c.OutputRate < 16000 {
		return fmt.Errorf("%w: output rate %d below 16000 requires the generator rate %d", ErrInvalidContext, c.OutputRate, generatorRate)
	}

	return nil
}
