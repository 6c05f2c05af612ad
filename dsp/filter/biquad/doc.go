// Package biquad implements second-order IIR filter sections and cascades
// in Direct Form II Transposed, including a forward-backward zero-phase
// mode for offline processing.
package biquad
