package recommendation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const scoreEpsilon = 1e-9

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// cosine returns the cosine similarity and false when either vector is zero.
func cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, false
	}
	c := floats.Dot(a, b) / (na * nb)
	if c > 1 {
		c = 1
	}
	if c < -1 {
		c = -1
	}
	return c, true
}

func euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// roundScore snaps scores to a fixed grid so float noise can't break ties.
func roundScore(x float64) float64 {
	return math.Round(x/scoreEpsilon) * scoreEpsilon
}

func decay(age, halfLife float64) float64 {
	if halfLife <= 0 {
		return 1
	}
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * age / halfLife)
}
