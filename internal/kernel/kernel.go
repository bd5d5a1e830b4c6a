// Package kernel holds the element-level numeric kernels shared by the
// streaming pipeline and the batch reference model. Both execution modes
// call exactly these functions so their results agree bit for bit.
package kernel

import "math"

// LengthWeights returns exp(l_d) for every input dimension.
// The distance kernel multiplies each squared difference by this weight.
func LengthWeights(lengthScales []float64) []float64 {
	w := make([]float64, len(lengthScales))
	for d, l := range lengthScales {
		w[d] = math.Exp(l)
	}
	return w
}

// WeightedSqDist returns sum_d (x[d]-y[d])^2 * w[d]. Lengths are assumed equal.
func WeightedSqDist(x, y, w []float64) float64 {
	sum := 0.0
	for d := range x {
		diff := x[d] - y[d]
		sum += diff * diff * w[d]
	}
	return sum
}

// SquaredExponential returns exp(-0.5*r) * scale, where scale is exp(sigma).
// Callers hoist scale out of their loops with Scale.
func SquaredExponential(r, scale float64) float64 {
	return math.Exp(-0.5*r) * scale
}

// Scale returns the kernel amplitude exp(sigma).
func Scale(sigma float64) float64 { return math.Exp(sigma) }
