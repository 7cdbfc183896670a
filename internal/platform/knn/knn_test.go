package knn

import (
	"math"
	"testing"
)

func TestFitStandardizer_TransformsToZeroMeanUnitVariance(t *testing.T) {
	vectors := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}

	s, err := FitStandardizer(vectors)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	out, err := s.TransformAll(vectors)
	if err != nil {
		t.Fatalf("transform all: %v", err)
	}

	for j := 0; j < 2; j++ {
		var mean, variance float64
		for _, v := range out {
			mean += v[j]
		}
		mean /= float64(len(out))
		for _, v := range out {
			d := v[j] - mean
			variance += d * d
		}
		variance /= float64(len(out))

		if math.Abs(mean) > 1e-9 {
			t.Fatalf("feature %d mean = %v, expected 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Fatalf("feature %d variance = %v, expected 1", j, variance)
		}
	}
}

func TestStandardizer_ZeroVarianceFeature(t *testing.T) {
	vectors := [][]float64{
		{5, 1},
		{5, 2},
	}

	s, err := FitStandardizer(vectors)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	out, err := s.Transform([]float64{5, 1.5})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if out[0] != 0 {
		t.Fatalf("zero-variance feature should standardize to 0, got %v", out[0])
	}
}

func TestFitStandardizer_RejectsEmptyAndRagged(t *testing.T) {
	if _, err := FitStandardizer(nil); err == nil {
		t.Fatal("expected error for empty population")
	}
	if _, err := FitStandardizer([][]float64{{1, 2}, {1}}); err == nil {
		t.Fatal("expected error for ragged population")
	}
}

func TestIndex_NearestOrdersByDistance(t *testing.T) {
	ix, err := NewIndex([][]float64{
		{0, 0},
		{3, 4},
		{1, 0},
		{10, 10},
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	hits, err := ix.Nearest([]float64{0, 0}, 3)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	wantPositions := []int{0, 2, 1}
	for i, want := range wantPositions {
		if hits[i].Position != want {
			t.Fatalf("hit %d position = %d, want %d", i, hits[i].Position, want)
		}
	}
	if hits[0].Distance != 0 {
		t.Fatalf("self distance = %v, want 0", hits[0].Distance)
	}
	if math.Abs(hits[2].Distance-5) > 1e-9 {
		t.Fatalf("distance to (3,4) = %v, want 5", hits[2].Distance)
	}
}

func TestIndex_NearestClampsK(t *testing.T) {
	ix, err := NewIndex([][]float64{{0}, {1}})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	hits, err := ix.Nearest([]float64{0}, 10)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected clamp to population size 2, got %d", len(hits))
	}
}

func TestIndex_NearestTiesKeepInsertionOrder(t *testing.T) {
	ix, err := NewIndex([][]float64{{1}, {-1}, {1}})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	hits, err := ix.Nearest([]float64{0}, 3)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}
	wantPositions := []int{0, 1, 2}
	for i, want := range wantPositions {
		if hits[i].Position != want {
			t.Fatalf("hit %d position = %d, want %d", i, hits[i].Position, want)
		}
	}
}
