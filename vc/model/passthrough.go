// Package model provides built-in model backends for the conversion
// unit. The passthrough pair carries raw audio through the feature path
// unchanged and is meant for dry runs, latency measurement, and tests;
// real voice models plug in through the same interfaces.
package model

import (
	"context"
	"errors"

	"github.com/cwbudde/algo-vc/dsp/interp"
)

// ErrInvalidRate indicates a non-positive generator sample rate.
var ErrInvalidRate = errors.New("model: sample rate must be positive")

const (
	featureWidth    = 320
	framesPerSecond = 100
)

// Passthrough implements both the feature extractor and the generator
// over raw audio. Extraction slices 16 kHz input into feature rows of
// raw samples; inference lays the rows back out as audio at the
// configured rate.
type Passthrough struct {
	rate int
}

// NewPassthrough creates a passthrough model pair generating at the
// given sample rate.
func NewPassthrough(rate int) (*Passthrough, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}

	return &Passthrough{rate: rate}, nil
}

// Dim returns the feature row width.
func (p *Passthrough) Dim() int {
	return featureWidth
}

// Extract slices pcm into rows of featureWidth raw samples. A trailing
// partial row is dropped.
func (p *Passthrough) Extract(_ context.Context, pcm []float64) ([][]float64, error) {
	frames := len(pcm) / featureWidth
	rows := make([][]float64, frames)

	for i := range rows {
		rows[i] = make([]float64, featureWidth)
		copy(rows[i], pcm[i*featureWidth:])
	}

	return rows, nil
}

// SampleRate returns the generator output rate.
func (p *Passthrough) SampleRate() int {
	return p.rate
}

// Infer reconstructs audio from feature rows, one 10 ms frame per row.
// Pitch conditioning and the speaker id are ignored.
func (p *Passthrough) Infer(_ context.Context, features [][]float64, _ []int32, _ []float64, _ int) ([]float64, error) {
	spf := p.rate / framesPerSecond
	out := make([]float64, 0, len(features)*spf)

	for _, row := range features {
		// Each upsampled row starts at its own frame, so the first half
		// of the row is that frame's audio at 16 kHz.
		frame := row[:len(row)/2]
		if spf != len(frame) {
			frame = interp.ResizeLinear(frame, spf)
		}

		out = append(out, frame...)
	}

	return out, nil
}
