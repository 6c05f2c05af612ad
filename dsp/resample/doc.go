// Package resample provides rational sample-rate conversion using polyphase
// FIR filtering with anti-aliasing defaults.
//
// Quality modes:
//   - QualityFast: lower CPU, lower attenuation
//   - QualityBalanced: default mode
//   - QualityBest: higher attenuation and flatter passband
//
// Common workflows:
//   - Resample(input, up, down, opts...) for one-shot conversion
//   - NewForRates(inRate, outRate, opts...) for streaming use
package resample
