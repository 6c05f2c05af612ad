// Package pitch provides fundamental-frequency estimation for voice
// conversion at a fixed analysis hop.
//
// Methods:
//   - MethodAutocorrelation: windowed normalized autocorrelation ("pm")
//   - MethodHarmonic: normalized difference function ("harvest")
//   - MethodHarmonicFast: decimated difference function ("dio")
//   - MethodTracker / MethodTrackerHiRes: injected neural backends
//     ("crepe", "rmvpe")
//
// Contours are per-frame f0 sequences in Hz with 0 marking unvoiced
// frames. They support semitone transposition and mapping onto the
// coarse [1, 255] conditioning scale.
//
// Common workflows:
//   - NewEstimator(opts...) then Estimate(ctx, pcm, frames, method)
//   - ParseMethods("hybrid[pm+harvest]") then EstimateHybrid for
//     median-fused multi-method contours
//   - WithCache(NewCache()) to memoize the harmonic method across calls
package pitch
