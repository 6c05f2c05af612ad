// Package core provides small numeric helpers shared by the DSP and
// voice-conversion packages: clamping, approximate comparison, buffer
// reuse, short median/mean filters, quantile estimation, and reflect
// padding.
package core
