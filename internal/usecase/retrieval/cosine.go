package retrieval

import "math"

// cosine computes dot(a,b) / (|a|*|b|). Mismatched lengths and zero-norm
// vectors score 0 rather than erroring: the fallback tier treats unusable
// vectors as irrelevant, not broken.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
