package model

import "math"

// Embedding is a fixed-length vector. Its dimension depends on the provider that
// produced it, so vectors of different lengths may coexist in the store.
type Embedding []float64

// CosineSimilarity returns the cosine of the angle between a and b.
// It returns 0 when either vector is empty, their lengths differ, either norm is zero
// or a component is not finite. The result is always within [-1, 1].
func CosineSimilarity(a, b Embedding) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	scaleA, scaleB := maxAbs(a), maxAbs(b)
	if scaleA == 0 || scaleB == 0 || math.IsInf(scaleA, 0) || math.IsInf(scaleB, 0) {
		return 0
	}

	// components are scaled into [-1, 1] so the sums neither overflow nor underflow
	var dot, normA, normB float64
	for i := range a {
		x, y := a[i]/scaleA, b[i]/scaleB
		dot += x * y
		normA += x * x
		normB += y * y
	}

	sim := dot / math.Sqrt(normA*normB)
	if math.IsNaN(sim) {
		return 0
	}
	return max(-1, min(1, sim))
}

func maxAbs(v Embedding) float64 {
	var m float64
	for _, x := range v {
		if ax := math.Abs(x); ax > m || math.IsNaN(ax) {
			m = ax
		}
	}
	return m
}

// Normalize returns the L2-normalized copy of v. A zero vector is returned unchanged.
func (v Embedding) Normalize() Embedding {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	out := make(Embedding, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
