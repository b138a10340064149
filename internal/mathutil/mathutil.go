package mathutil

import "math"

// Dot computes the dot product of two vectors. Vectors must be equal
// length; callers enforce dimensionality before scoring.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm computes the L2 norm (magnitude) of a vector.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns 0 when either vector has zero magnitude, never NaN.
func CosineSimilarity(a, b []float32) float32 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return Dot(a, b) / (normA * normB)
}
