package embeddings

import "math"

// CosineSimilarity returns the cosine similarity of two vectors.
//
// The result is in [-1, 1], higher meaning more similar. If either vector
// has zero norm (or the lengths differ) it returns 0.0 - "no signal", not
// a true orthogonality value; callers must not treat it as a similarity.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
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

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
