// Package window generates analysis window functions (Hann, Hamming,
// Blackman) and applies them to sample blocks.
package window
