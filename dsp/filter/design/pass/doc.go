// Package pass designs Butterworth lowpass and highpass cascades as
// sequences of biquad sections.
package pass
