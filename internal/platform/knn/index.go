// Package knn provides exact nearest-neighbor search over small in-memory
// populations. Search is a brute-force scan; populations here are a few
// thousand rows at most, where exactness matters more than sublinear lookup.
package knn

import (
	"fmt"
	"math"
	"sort"
)

// Neighbor is one search hit. Position indexes the population the index was
// built from, in insertion order.
type Neighbor struct {
	Position int
	Distance float64
}

// Index is an immutable Euclidean nearest-neighbor structure.
type Index struct {
	vectors [][]float64
	dims    int
}

// NewIndex builds an index over the given vectors. The slice is retained;
// callers must not mutate it afterwards.
func NewIndex(vectors [][]float64) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("build knn index: empty population")
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("build knn index: vector %d has %d features, expected %d", i, len(v), dims)
		}
	}
	return &Index{vectors: vectors, dims: dims}, nil
}

// Len reports the population size.
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// Nearest returns up to k neighbors of the query, closest first. Ties keep
// insertion order so results are deterministic.
func (ix *Index) Nearest(query []float64, k int) ([]Neighbor, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("knn query has %d features, index has %d", len(query), ix.dims)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	neighbors := make([]Neighbor, len(ix.vectors))
	for i, v := range ix.vectors {
		neighbors[i] = Neighbor{Position: i, Distance: Distance(query, v)}
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].Distance < neighbors[b].Distance
	})
	return neighbors[:k], nil
}

// Distance is the Euclidean distance between two equal-length vectors.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
