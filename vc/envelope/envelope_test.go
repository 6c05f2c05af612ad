package envelope

import (
	"errors"
	"math"
	"testing"
)

func tone(amp float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*220*float64(i)/16000)
	}

	return x
}

func rms(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

func TestMatchValidation(t *testing.T) {
	if err := Match(nil, 16000, nil, 16000, 1.5); !errors.Is(err, ErrInvalidMix) {
		t.Fatalf("error = %v, want ErrInvalidMix", err)
	}

	if err := Match(nil, 0, nil, 16000, 0.5); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("error = %v, want ErrInvalidRate", err)
	}
}

func TestMatchMixOneIdentity(t *testing.T) {
	target := tone(0.3, 32000)
	want := make([]float64, len(target))
	copy(want, target)

	source := tone(0.9, 32000)

	if err := Match(target, 16000, source, 16000, 1); err != nil {
		t.Fatal(err)
	}

	for i := range want {
		if target[i] != want[i] {
			t.Fatalf("mix 1 modified sample %d", i)
		}
	}
}

func TestMatchMixZeroImposesSource(t *testing.T) {
	target := tone(0.2, 32000)
	source := tone(0.8, 32000)

	if err := Match(target, 16000, source, 16000, 0); err != nil {
		t.Fatal(err)
	}

	// Interior region avoids edge frames where zero fill biases the
	// envelope estimate.
	got := rms(target[8000:24000])
	want := rms(source[8000:24000])

	if math.Abs(got-want)/want > 0.1 {
		t.Fatalf("imposed rms = %v, want ~%v", got, want)
	}
}

func TestMatchPartialMixBetween(t *testing.T) {
	quiet := 0.2
	loud := 0.8

	target := tone(quiet, 32000)
	source := tone(loud, 32000)

	if err := Match(target, 16000, source, 16000, 0.5); err != nil {
		t.Fatal(err)
	}

	got := rms(target[8000:24000])

	lo := quiet / math.Sqrt2 * 1.05
	hi := loud / math.Sqrt2 * 0.95

	if got <= lo || got >= hi {
		t.Fatalf("half mix rms = %v, want strictly between %v and %v", got, lo, hi)
	}
}

func TestMatchSilentTargetStaysFinite(t *testing.T) {
	target := make([]float64, 16000)
	source := tone(0.5, 16000)

	if err := Match(target, 16000, source, 16000, 0); err != nil {
		t.Fatal(err)
	}

	for i, v := range target {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d = %v", i, v)
		}
	}
}

func TestMatchCrossRate(t *testing.T) {
	target := tone(0.2, 96000)
	source := tone(0.8, 32000)

	if err := Match(target, 48000, source, 16000, 0); err != nil {
		t.Fatal(err)
	}

	got := rms(target[24000:72000])
	want := 0.8 / math.Sqrt2

	if math.Abs(got-want)/want > 0.15 {
		t.Fatalf("cross-rate rms = %v, want ~%v", got, want)
	}
}
