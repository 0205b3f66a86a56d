// Package vecmath holds the small amount of vector arithmetic the engine
// needs: unit normalization before storage (so inner product behaves as
// cosine similarity) and similarity helpers for tests and diagnostics.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalize scales v to unit length in place and returns it. A zero vector is
// returned unchanged.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	inv := float32(1 / n)
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	w := widen(v)
	return math.Sqrt(floats.Dot(w, w))
}

// Dot returns the inner product of a and b. Mismatched lengths yield 0.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return floats.Dot(widen(a), widen(b))
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Zero vectors or mismatched lengths yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	wa, wb := widen(a), widen(b)
	magA := math.Sqrt(floats.Dot(wa, wa))
	magB := math.Sqrt(floats.Dot(wb, wb))
	if magA == 0 || magB == 0 {
		return 0
	}
	return floats.Dot(wa, wb) / (magA * magB)
}

func widen(v []float32) []float64 {
	w := make([]float64, len(v))
	for i, x := range v {
		w[i] = float64(x)
	}
	return w
}
