package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

var errMismatchedLength = errors.New("window: samples and coefficients must have same length")

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// Generate returns the symmetric window coefficients of type t with the
// given length. Returns nil for non-positive lengths.
func Generate(t Type, length int) []float64 {
	if length <= 0 {
		return nil
	}

	coeffs := make([]float64, length)
	if length == 1 {
		coeffs[0] = 1

		return coeffs
	}

	for n := range coeffs {
		x := float64(n) / float64(length-1)

		switch t {
		case TypeHann:
			coeffs[n] = 0.5 - 0.5*math.Cos(2*math.Pi*x)
		case TypeHamming:
			coeffs[n] = 0.54 - 0.46*math.Cos(2*math.Pi*x)
		case TypeBlackman:
			coeffs[n] = 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
		default:
			coeffs[n] = 1
		}
	}

	return coeffs
}

// Hann returns symmetric Hann window coefficients.
func Hann(size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", size)
	}

	return Generate(TypeHann, size), nil
}

// Hamming returns symmetric Hamming window coefficients.
func Hamming(size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", size)
	}

	return Generate(TypeHamming, size), nil
}

// ApplyCoefficientsInPlace multiplies samples by precomputed coefficients.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	if len(samples) == 0 {
		return nil
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}
