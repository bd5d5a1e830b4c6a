package kernel

import (
	"math"
	"testing"
)

func TestWeightedSqDistIdentity(t *testing.T) {
	x := []float64{1, 2, 3}
	w := LengthWeights([]float64{0.3, -1, 2})
	if got := WeightedSqDist(x, x, w); got != 0 {
		t.Fatalf("distance to self: got %v want 0", got)
	}
}

func TestWeightedSqDistUsesExpLength(t *testing.T) {
	x := []float64{1, 0}
	y := []float64{0, 2}
	w := LengthWeights([]float64{math.Log(2), 0})
	// 1*2 + 4*1
	if got := WeightedSqDist(x, y, w); math.Abs(got-6) > 1e-12 {
		t.Fatalf("got %v want 6", got)
	}
}

func TestSquaredExponentialAtZero(t *testing.T) {
	for _, sigma := range []float64{0, 0.5, -1.25, 3} {
		got := SquaredExponential(0, Scale(sigma))
		if math.Abs(got-math.Exp(sigma)) > 1e-12 {
			t.Fatalf("sigma=%v: got %v want %v", sigma, got, math.Exp(sigma))
		}
	}
}

func TestSquaredExponentialDecays(t *testing.T) {
	s := Scale(0)
	prev := SquaredExponential(0, s)
	for _, r := range []float64{0.5, 1, 2, 8} {
		k := SquaredExponential(r, s)
		if !(k < prev) || k <= 0 {
			t.Fatalf("kernel not strictly decreasing and positive at r=%v: %v (prev %v)", r, k, prev)
		}
		prev = k
	}
}
