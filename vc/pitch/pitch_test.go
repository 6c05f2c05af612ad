package pitch

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.7 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}

	return x
}

func TestParseMethods(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Method
		wantErr error
	}{
		{name: "single", input: "pm", want: []Method{MethodAutocorrelation}},
		{name: "tracker", input: "rmvpe", want: []Method{MethodTrackerHiRes}},
		{name: "hybrid", input: "hybrid[pm+harvest]", want: []Method{MethodAutocorrelation, MethodHarmonic}},
		{name: "hybrid with spaces", input: "hybrid[dio + crepe]", want: []Method{MethodHarmonicFast, MethodTracker}},
		{name: "empty", input: "", wantErr: ErrNoMethod},
		{name: "empty hybrid", input: "hybrid[]", wantErr: ErrNoMethod},
		{name: "unknown", input: "swipe", wantErr: ErrUnknownMethod},
		{name: "unknown in hybrid", input: "hybrid[pm+swipe]", wantErr: ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethods(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseMethods(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseMethods(%q) error = %v", tt.input, err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("ParseMethods(%q) = %v, want %v", tt.input, got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ParseMethods(%q) = %v, want %v", tt.input, got, tt.want)
				}
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	if MethodHarmonic.String() != "harvest" {
		t.Fatalf("String() = %q, want harvest", MethodHarmonic.String())
	}

	if Method(99).Valid() {
		t.Fatal("Method(99) should be invalid")
	}
}

func TestContourShift(t *testing.T) {
	c := Contour{0, 220, 440}
	c.Shift(12)

	if c[0] != 0 {
		t.Fatalf("unvoiced frame shifted to %v", c[0])
	}

	if math.Abs(c[1]-440) > 1e-9 || math.Abs(c[2]-880) > 1e-9 {
		t.Fatalf("one octave up = %v, want [0 440 880]", c)
	}

	c.Shift(-12)

	if math.Abs(c[1]-220) > 1e-9 {
		t.Fatalf("round trip = %v, want 220", c[1])
	}
}

func TestContourCoarseRange(t *testing.T) {
	c := Contour{0, math.NaN(), 50, 1100, 2000, 25}
	coarse := c.Coarse(50, 1100)

	want := []int32{1, 1, 1, 255, 255, 1}
	for i := range want {
		if coarse[i] != want[i] {
			t.Fatalf("Coarse() = %v, want %v", coarse, want)
		}
	}
}

func TestContourCoarseMonotone(t *testing.T) {
	n := 64
	c := make(Contour, n)

	for i := range c {
		c[i] = 50 + float64(i)*(1100-50)/float64(n-1)
	}

	coarse := c.Coarse(50, 1100)
	for i := 1; i < n; i++ {
		if coarse[i] < coarse[i-1] {
			t.Fatalf("coarse scale not monotone at %d: %d < %d", i, coarse[i], coarse[i-1])
		}
	}

	if coarse[0] != 1 || coarse[n-1] != 255 {
		t.Fatalf("endpoints = %d, %d; want 1, 255", coarse[0], coarse[n-1])
	}
}

func TestContourReplaceSegment(t *testing.T) {
	c := Contour{1, 2, 3, 4, 5}
	c.ReplaceSegment(3, []float64{9, 9, 9, 9})

	if c[3] != 9 || c[4] != 9 || c[2] != 3 {
		t.Fatalf("ReplaceSegment clipped wrong: %v", c)
	}

	c.ReplaceSegment(-2, []float64{7, 7, 7})

	if c[0] != 7 || c[1] != 9 {
		t.Fatalf("negative start handling wrong: %v", c)
	}
}

func TestEstimateValidation(t *testing.T) {
	e := NewEstimator()

	if _, err := e.Estimate(context.Background(), nil, 10, Method(42)); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("error = %v, want ErrUnknownMethod", err)
	}

	if _, err := e.Estimate(context.Background(), nil, 10, MethodTracker); !errors.Is(err, ErrTrackerRequired) {
		t.Fatalf("error = %v, want ErrTrackerRequired", err)
	}

	if _, err := e.EstimateHybrid(context.Background(), nil, 10, nil); !errors.Is(err, ErrNoMethod) {
		t.Fatalf("error = %v, want ErrNoMethod", err)
	}
}

func TestEstimateFrameCount(t *testing.T) {
	e := NewEstimator()
	x := sine(220, DefaultSampleRate, DefaultSampleRate/2)

	for _, method := range []Method{MethodAutocorrelation, MethodHarmonic, MethodHarmonicFast} {
		c, err := e.Estimate(context.Background(), x, 50, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}

		if len(c) != 50 {
			t.Fatalf("%s: len = %d, want 50", method, len(c))
		}
	}
}

func TestEstimateSine(t *testing.T) {
	e := NewEstimator()
	x := sine(220, DefaultSampleRate, DefaultSampleRate)
	frames := len(x) / DefaultHop

	for _, method := range []Method{MethodAutocorrelation, MethodHarmonic, MethodHarmonicFast} {
		c, err := e.Estimate(context.Background(), x, frames, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}

		// Ignore edge frames where the analysis window runs off the signal.
		voiced := 0
		for _, f := range c[5 : frames-5] {
			if f == 0 {
				continue
			}

			voiced++

			if math.Abs(f-220) > 220*0.05 {
				t.Fatalf("%s: f0 = %v, want ~220", method, f)
			}
		}

		if voiced < (frames-10)/2 {
			t.Fatalf("%s: only %d voiced frames of %d", method, voiced, frames-10)
		}
	}
}

func TestEstimateSilenceUnvoiced(t *testing.T) {
	e := NewEstimator()
	x := make([]float64, DefaultSampleRate/2)

	for _, method := range []Method{MethodAutocorrelation, MethodHarmonic, MethodHarmonicFast} {
		c, err := e.Estimate(context.Background(), x, 50, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}

		for i, f := range c {
			if f != 0 {
				t.Fatalf("%s: silence frame %d = %v, want 0", method, i, f)
			}
		}
	}
}

func TestHybridSingletonMatchesSingle(t *testing.T) {
	e := NewEstimator()
	x := sine(330, DefaultSampleRate, DefaultSampleRate/2)

	single, err := e.Estimate(context.Background(), x, 50, MethodHarmonicFast)
	if err != nil {
		t.Fatal(err)
	}

	hybrid, err := e.EstimateHybrid(context.Background(), x, 50, []Method{MethodHarmonicFast})
	if err != nil {
		t.Fatal(err)
	}

	for i := range single {
		if single[i] != hybrid[i] {
			t.Fatalf("frame %d: single = %v, hybrid = %v", i, single[i], hybrid[i])
		}
	}
}

func TestHybridMedianFusion(t *testing.T) {
	e := NewEstimator()
	x := sine(220, DefaultSampleRate, DefaultSampleRate/2)

	c, err := e.EstimateHybrid(context.Background(), x, 50, []Method{MethodAutocorrelation, MethodHarmonic, MethodHarmonicFast})
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range c[5:45] {
		if f != 0 && math.Abs(f-220) > 220*0.05 {
			t.Fatalf("fused f0 = %v, want ~220 or 0", f)
		}
	}
}

type stubTracker struct {
	calls atomic.Int32
	f0    []float64
	pd    []float64
	err   error
}

func (s *stubTracker) Track(_ context.Context, pcm []float64, sampleRate, hop, batch int) ([]float64, []float64, error) {
	s.calls.Add(1)

	if s.err != nil {
		return nil, nil, s.err
	}

	f0 := make([]float64, len(s.f0))
	copy(f0, s.f0)
	pd := make([]float64, len(s.pd))
	copy(pd, s.pd)

	return f0, pd, nil
}

func TestTrackerVoicingGate(t *testing.T) {
	stub := &stubTracker{
		f0: []float64{220, 220, 220, 220},
		pd: []float64{0.9, 0.0001, 0.9, 0.9},
	}

	e := NewEstimator(WithTracker(stub))

	c, err := e.Estimate(context.Background(), sine(220, DefaultSampleRate, 640), 4, MethodTracker)
	if err != nil {
		t.Fatal(err)
	}

	if c[1] != 0 {
		t.Fatalf("low-periodicity frame = %v, want 0", c[1])
	}

	if c[0] != 220 || c[2] != 220 {
		t.Fatalf("voiced frames altered: %v", c)
	}
}

func TestTrackerError(t *testing.T) {
	wantErr := errors.New("backend offline")
	e := NewEstimator(WithTracker(&stubTracker{err: wantErr}))

	if _, err := e.Estimate(context.Background(), make([]float64, 640), 4, MethodTrackerHiRes); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped backend error", err)
	}
}

func TestCacheAtMostOneCompute(t *testing.T) {
	c := NewCache()
	key := Key{Hash: 42, SampleRate: 16000, F0Min: 50, F0Max: 1100, FramePeriod: 10}

	var computes atomic.Int32

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := c.GetOrCompute(key, func() ([]float64, error) {
				computes.Add(1)

				return []float64{1, 2, 3}, nil
			})
			if err != nil {
				t.Errorf("GetOrCompute() error = %v", err)
			}

			if len(got) != 3 {
				t.Errorf("GetOrCompute() = %v", got)
			}
		}()
	}

	wg.Wait()

	if n := computes.Load(); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheErrorNotCached(t *testing.T) {
	c := NewCache()
	key := Key{Hash: 7}

	wantErr := errors.New("transient")
	if _, err := c.GetOrCompute(key, func() ([]float64, error) { return nil, wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}

	if c.Len() != 0 {
		t.Fatalf("failed compute cached, Len() = %d", c.Len())
	}

	got, err := c.GetOrCompute(key, func() ([]float64, error) { return []float64{5}, nil })
	if err != nil || len(got) != 1 {
		t.Fatalf("retry = %v, %v", got, err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()

	for _, k := range []Key{{Hash: 1, F0Min: 50}, {Hash: 1, F0Min: 60}, {Hash: 2, F0Min: 50}} {
		if _, err := c.GetOrCompute(k, func() ([]float64, error) { return []float64{0}, nil }); err != nil {
			t.Fatal(err)
		}
	}

	c.Invalidate(1)

	if c.Len() != 1 {
		t.Fatalf("Len() = %d after Invalidate, want 1", c.Len())
	}

	c.Reset()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Reset, want 0", c.Len())
	}
}

func TestHarmonicUsesCache(t *testing.T) {
	cache := NewCache()
	e := NewEstimator(WithCache(cache))
	x := sine(220, DefaultSampleRate, DefaultSampleRate/4)

	first, err := e.Estimate(context.Background(), x, 25, MethodHarmonic)
	if err != nil {
		t.Fatal(err)
	}

	if cache.Len() != 1 {
		t.Fatalf("Len() = %d after first estimate, want 1", cache.Len())
	}

	second, err := e.Estimate(context.Background(), x, 25, MethodHarmonic)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached contour differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestHashWaveformDistinguishes(t *testing.T) {
	a := []float64{0, 0.5, -0.5}
	b := []float64{0, 0.5, -0.25}

	if HashWaveform(a) == HashWaveform(b) {
		t.Fatal("distinct waveforms hashed equal")
	}

	if HashWaveform(a) != HashWaveform([]float64{0, 0.5, -0.5}) {
		t.Fatal("equal waveforms hashed differently")
	}
}
