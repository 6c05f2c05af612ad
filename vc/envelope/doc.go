// Package envelope matches the loudness contour of converted audio to
// the input it came from, with a mix control between fully imposed and
// fully ignored.
package envelope
