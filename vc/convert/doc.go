// Package convert renders individual audio chunks in a target voice.
//
// A Unit ties a content feature extractor to a voice generator and
// applies the per-chunk feature pipeline between them: retrieval
// blending against a speaker index, 2x temporal upsampling to the pitch
// frame rate, and unvoiced-frame protection. Chunk sequencing, padding,
// and loudness handling live in the pipeline package.
package convert
