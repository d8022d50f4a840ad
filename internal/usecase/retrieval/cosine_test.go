package retrieval

import (
	"math"
	"testing"
)

func TestCosine_SelfSimilarityIsOne(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0.3, -0.7, 2.1},
		{5},
	}
	for _, v := range vectors {
		if got := cosine(v, v); math.Abs(got-1.0) > 1e-6 {
			t.Errorf("cosine(%v, %v) = %v, want 1.0", v, v, got)
		}
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	if got := cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors must score 0, got %v", got)
	}
}

func TestCosine_Opposite(t *testing.T) {
	if got := cosine([]float32{1, 2}, []float32{-1, -2}); math.Abs(got+1.0) > 1e-6 {
		t.Errorf("opposite vectors must score -1, got %v", got)
	}
}

func TestCosine_UnusableVectorsScoreZero(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
	}{
		{"zero vector", []float32{0, 0}, []float32{1, 1}},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}},
		{"empty", nil, []float32{1}},
	}
	for _, c := range cases {
		if got := cosine(c.a, c.b); got != 0 {
			t.Errorf("%s: expected 0, got %v", c.name, got)
		}
	}
}
