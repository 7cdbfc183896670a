package knn

import (
	"fmt"
	"math"
)

// Standardizer holds per-feature mean and standard deviation fitted over one
// population. Features with zero variance standardize to 0 so they do not
// dominate distances.
type Standardizer struct {
	means  []float64
	stddev []float64
}

// FitStandardizer computes column statistics over the full population.
func FitStandardizer(vectors [][]float64) (*Standardizer, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("fit standardizer: empty population")
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("fit standardizer: vector %d has %d features, expected %d", i, len(v), dims)
		}
	}

	means := make([]float64, dims)
	for _, v := range vectors {
		for j, x := range v {
			means[j] += x
		}
	}
	n := float64(len(vectors))
	for j := range means {
		means[j] /= n
	}

	stddev := make([]float64, dims)
	for _, v := range vectors {
		for j, x := range v {
			d := x - means[j]
			stddev[j] += d * d
		}
	}
	for j := range stddev {
		stddev[j] = math.Sqrt(stddev[j] / n)
	}

	return &Standardizer{means: means, stddev: stddev}, nil
}

// Transform standardizes one vector using the fitted statistics.
func (s *Standardizer) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.means) {
		return nil, fmt.Errorf("standardize: vector has %d features, fitted for %d", len(v), len(s.means))
	}
	out := make([]float64, len(v))
	for j, x := range v {
		if s.stddev[j] == 0 {
			continue
		}
		out[j] = (x - s.means[j]) / s.stddev[j]
	}
	return out, nil
}

// TransformAll standardizes a whole population in place order.
func (s *Standardizer) TransformAll(vectors [][]float64) ([][]float64, error) {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		t, err := s.Transform(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
