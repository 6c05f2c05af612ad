// Package interp provides fractional interpolation primitives and
// length-changing linear resampling for contours, envelopes, and
// time-major feature matrices.
package interp
