package convert

import "context"

// FeatureExtractor produces content features from 16 kHz audio. Each row
// is one feature frame covering two analysis hops of input, so a signal
// of n samples yields about n/320 rows of Dim() values.
type FeatureExtractor interface {
	Extract(ctx context.Context, pcm []float64) ([][]float64, error)
	Dim() int
}

// Generator synthesizes audio in the target voice from feature frames
// and optional pitch conditioning. One output frame of audio is produced
// per feature row at the generator's sample rate. The coarse and pitch
// slices are either both empty or both one value per feature row.
type Generator interface {
	SampleRate() int
	Infer(ctx context.Context, features [][]float64, coarse []int32, pitch []float64, speaker int) ([]float64, error)
}
