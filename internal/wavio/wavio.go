// Package wavio reads and writes mono WAV files as float64 sample
// slices for the command-line front ends.
package wavio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV indicates a file that is not decodable WAV audio.
var ErrNotWAV = errors.New("wavio: not a valid WAV file")

// Read decodes a WAV file into mono float64 samples in [-1, 1] and
// returns them with the file's sample rate. Multi-channel audio is
// downmixed by averaging.
func Read(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotWAV, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("%w: %s has no channels", ErrNotWAV, path)
	}

	scale := 1.0 / float64(int(1)<<(buf.SourceBitDepth-1))
	frames := len(buf.Data) / channels
	out := make([]float64, frames)

	for i := range out {
		sum := 0
		for ch := range channels {
			sum += buf.Data[i*channels+ch]
		}

		out[i] = float64(sum) / float64(channels) * scale
	}

	return out, buf.Format.SampleRate, nil
}

// Write encodes 16-bit mono PCM to a WAV file at the given rate.
func Write(path string, pcm []int16, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)

	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: encode %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: finalize %s: %w", path, err)
	}

	return f.Close()
}
