// Package similarity provides vector similarity measures used by the
// application-layer retrieval fallbacks.
package similarity

import "math"

// Cosine returns the cosine similarity between two vectors, in [-1, 1].
// When the lengths differ or either vector has zero magnitude the result is
// NaN; callers must treat NaN as "no similarity" rather than an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
