// Package distance provides vector similarity calculations for embedding
// evaluation.
package distance

import (
	"errors"
	"math"
)

// ErrSizeMismatch is returned when two vectors have different lengths.
var ErrSizeMismatch = errors.New("distance: vector sizes do not match")

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Magnitude calculates the L2 norm of a vector.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Zero-magnitude vectors yield similarity 0.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrSizeMismatch
	}

	magA := Magnitude(a)
	magB := Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return Dot(a, b) / (magA * magB), nil
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	norm := Magnitude(v)
	if norm == 0 {
		return false
	}
	inv := 1 / norm
	for i := range v {
		v[i] *= inv
	}
	return true
}
