// Package pipeline orchestrates whole-recording voice conversion.
//
// A Process call runs one immutable Context through a fixed sequence:
// zero-phase high-pass filtering, chunk planning, a single pitch pass
// over the padded signal, per-chunk conversion in order, concatenation,
// loudness matching, optional resampling, and 16-bit quantization.
// Chunks carry one second of reflected context on each side; the
// rendered context is trimmed so chunk seams are sample-exact.
package pipeline
