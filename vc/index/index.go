package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrDimensionMismatch indicates a query or vector of the wrong width.
	ErrDimensionMismatch = errors.New("index: dimension mismatch")
	// ErrInvalidK indicates a non-positive neighbor count.
	ErrInvalidK = errors.New("index: neighbor count must be positive")
	// ErrNoVectors indicates construction from an empty vector set.
	ErrNoVectors = errors.New("index: at least one vector required")
)

// BlendNeighbors is the neighbor count used for retrieval blending.
const BlendNeighbors = 8

// distanceFloor keeps exact matches from collapsing all blend weight
// onto a single neighbor.
const distanceFloor = 1e-10

// Index holds a flat set of feature vectors searched by squared
// Euclidean distance. The zero value and Passthrough() act as an
// unavailable index that leaves queries untouched.
type Index struct {
	dim     int
	vectors [][]float32
}

// New builds an index over the given vectors. All vectors must share one
// dimension. The slice is retained, not copied.
func New(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-width vector at 0", ErrDimensionMismatch)
	}

	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	return &Index{dim: dim, vectors: vectors}, nil
}

// Passthrough returns an unavailable index whose Blend is the identity.
func Passthrough() *Index {
	return &Index{}
}

// Available reports whether the index holds vectors to retrieve from.
func (x *Index) Available() bool {
	return x != nil && len(x.vectors) > 0
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}

	return len(x.vectors)
}

// Dim returns the vector dimension, 0 when unavailable.
func (x *Index) Dim() int {
	if x == nil {
		return 0
	}

	return x.dim
}

// Search returns the ids and squared Euclidean distances of the k
// nearest stored vectors, ordered by ascending distance with ties broken
// by ascending id. Fewer than k results are returned when the index is
// smaller than k.
func (x *Index) Search(query []float64, k int) ([]int, []float64, error) {
	if !x.Available() {
		return nil, nil, ErrNoVectors
	}

	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}

	if len(query) != x.dim {
		return nil, nil, fmt.Errorf("%w: query has %d values, want %d", ErrDimensionMismatch, len(query), x.dim)
	}

	type hit struct {
		id   int
		dist float64
	}

	hits := make([]hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = hit{id: i, dist: squaredDistance(query, v)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].dist != hits[b].dist {
			return hits[a].dist < hits[b].dist
		}

		return hits[a].id < hits[b].id
	})

	if k > len(hits) {
		k = len(hits)
	}

	ids := make([]int, k)
	dists := make([]float64, k)

	for i := range k {
		ids[i] = hits[i].id
		dists[i] = hits[i].dist
	}

	return ids, dists, nil
}

// Blend replaces each row with a mix of itself and the inverse-square
// weighted average of its BlendNeighbors nearest stored vectors:
//
//	row = ratio*retrieved + (1-ratio)*row
//
// A ratio of 0 or an unavailable index leaves rows untouched.
func (x *Index) Blend(rows [][]float64, ratio float64) error {
	if ratio == 0 || !x.Available() {
		return nil
	}

	if ratio < 0 || ratio > 1 {
		return fmt.Errorf("index: blend ratio %v outside [0, 1]", ratio)
	}

	retrieved := make([]float64, x.dim)

	for i, row := range rows {
		if len(row) != x.dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), x.dim)
		}

		ids, dists, err := x.Search(row, BlendNeighbors)
		if err != nil {
			return err
		}

		weightedAverage(retrieved, x.vectors, ids, dists)

		vecmath.ScaleBlock(row, row, 1-ratio)

		for j := range row {
			row[j] += ratio * retrieved[j]
		}
	}

	return nil
}

// weightedAverage fills dst with the average of the selected vectors
// weighted by the inverse square of their distances.
func weightedAverage(dst []float64, vectors [][]float32, ids []int, dists []float64) {
	for i := range dst {
		dst[i] = 0
	}

	total := 0.0
	weights := make([]float64, len(ids))

	for i, d := range dists {
		if d < distanceFloor {
			d = distanceFloor
		}

		w := 1 / (d * d)
		weights[i] = w
		total += w
	}

	if total == 0 {
		return
	}

	for i, id := range ids {
		w := weights[i] / total
		for j, v := range vectors[id] {
			dst[j] += w * float64(v)
		}
	}
}

func squaredDistance(query []float64, v []float32) float64 {
	sum := 0.0
	for i, q := range query {
		d := q - float64(v[i])
		sum += d * d
	}

	return sum
}
