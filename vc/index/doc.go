// Package index provides flat nearest-neighbor retrieval over speaker
// feature vectors for retrieval-based timbre blending.
//
// Search is exact squared-Euclidean over all stored vectors. Blend mixes
// each query row with the inverse-square weighted average of its eight
// nearest neighbors. Indexes serialize to msgpack; a failed Load degrades
// to a pass-through index rather than an error so conversion can continue
// without retrieval.
package index
