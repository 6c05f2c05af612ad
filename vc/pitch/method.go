package pitch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMethod indicates an unrecognized estimation method.
	ErrUnknownMethod = errors.New("pitch: unknown estimation method")
	// ErrTrackerRequired indicates a neural method was selected without a
	// tracker backend.
	ErrTrackerRequired = errors.New("pitch: method requires a neural tracker backend")
	// ErrNoMethod indicates an empty method selection.
	ErrNoMethod = errors.New("pitch: at least one estimation method required")
)

// Method identifies a pitch estimation strategy.
type Method int

const (
	// MethodAutocorrelation is a windowed, normalized autocorrelation
	// method with parabolic peak refinement.
	MethodAutocorrelation Method = iota
	// MethodHarmonic is a time-domain harmonic (difference function)
	// method at full resolution.
	MethodHarmonic
	// MethodHarmonicFast is a decimated variant of MethodHarmonic that
	// trades accuracy for speed. Its output is always median-smoothed.
	MethodHarmonicFast
	// MethodTracker delegates to a neural pitch tracker with a
	// configurable hop length.
	MethodTracker
	// MethodTrackerHiRes delegates to a neural pitch tracker at the
	// analysis hop with periodicity-based voicing gating.
	MethodTrackerHiRes
)

var methodNames = map[Method]string{
	MethodAutocorrelation: "pm",
	MethodHarmonic:        "harvest",
	MethodHarmonicFast:    "dio",
	MethodTracker:         "crepe",
	MethodTrackerHiRes:    "rmvpe",
}

// String returns the canonical name of the method.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is a recognized method.
func (m Method) Valid() bool {
	_, ok := methodNames[m]

	return ok
}

// NeedsTracker reports whether m requires a neural tracker backend.
func (m Method) NeedsTracker() bool {
	return m == MethodTracker || m == MethodTrackerHiRes
}

// ParseMethod converts a canonical method name into a Method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// ParseMethods parses a method selection string. A plain name selects a
// single method; the composite form "hybrid[a+b+...]" selects several
// methods for median fusion.
func ParseMethods(s string) ([]Method, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNoMethod
	}

	if !strings.HasPrefix(s, "hybrid") {
		m, err := ParseMethod(s)
		if err != nil {
			return nil, err
		}

		return []Method{m}, nil
	}

	inner := strings.TrimPrefix(s, "hybrid")
	inner = strings.Trim(inner, "[]")

	parts := strings.Split(inner, "+")

	methods := make([]Method, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		m, err := ParseMethod(p)
		if err != nil {
			return nil, err
		}

		methods = append(methods, m)
	}

	if len(methods) == 0 {
		return nil, ErrNoMethod
	}

	return methods, nil
}
