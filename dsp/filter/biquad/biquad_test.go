package biquad

import (
	"math"
	"testing"
)

// passthrough coefficients: y = x.
var identity = Coefficients{B0: 1}

func TestSectionIdentity(t *testing.T) {
	s := NewSection(identity)
	for _, x := range []float64{0, 1, -0.5, 0.25} {
		if y := s.ProcessSample(x); y != x {
			t.Fatalf("ProcessSample(%v) = %v", x, y)
		}
	}
}

func TestProcessBlockMatchesProcessSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.3, B2: 0.1, A1: -0.4, A2: 0.05}

	in := make([]float64, 128)
	for i := range in {
		in[i] = math.Sin(float64(i) * 0.1)
	}

	s1 := NewSection(c)
	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = s1.ProcessSample(x)
	}

	s2 := NewSection(c)
	got := make([]float64, len(in))
	copy(got, in)
	s2.ProcessBlock(got)

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Fatalf("sample %d: block = %v, sample = %v", i, got[i], want[i])
		}
	}
}

func TestChainCascades(t *testing.T) {
	c := NewChain([]Coefficients{identity, identity})
	if c.NumSections() != 2 || c.Order() != 4 {
		t.Fatalf("sections=%d order=%d", c.NumSections(), c.Order())
	}

	buf := []float64{1, 2, 3}
	c.ProcessBlock(buf)

	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 {
		t.Fatalf("identity cascade altered signal: %v", buf)
	}
}

func TestProcessZeroPhasePreservesOrientation(t *testing.T) {
	c := NewChain([]Coefficients{identity})

	buf := []float64{1, 2, 3, 4}
	c.ProcessZeroPhase(buf)

	want := []float64{1, 2, 3, 4}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
}

func TestProcessZeroPhaseSymmetricImpulse(t *testing.T) {
	// A zero-phase run of a causal one-pole smoother must produce a
	// response symmetric around the impulse position.
	c := NewChain([]Coefficients{{B0: 0.5, A1: -0.5}})

	const n = 129
	buf := make([]float64, n)
	buf[n/2] = 1

	c.ProcessZeroPhase(buf)

	for i := 1; i < n/2; i++ {
		if math.Abs(buf[n/2-i]-buf[n/2+i]) > 1e-12 {
			t.Fatalf("asymmetry at offset %d: %v vs %v", i, buf[n/2-i], buf[n/2+i])
		}
	}
}
