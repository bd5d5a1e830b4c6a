package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultTolerance is the absolute per-element tolerance between the batch
// and streaming predictions.
const DefaultTolerance = 1e-6

// Compare returns the largest absolute element difference between got and
// want, and whether every element is within tol.
func Compare(got, want []float64, tol float64) (maxDiff float64, ok bool, err error) {
	if len(got) != len(want) {
		return math.Inf(1), false, fmt.Errorf("reference: compare %d values against %d", len(got), len(want))
	}
	if len(got) == 0 {
		return 0, true, nil
	}
	maxDiff = floats.Distance(got, want, math.Inf(1))
	return maxDiff, maxDiff <= tol, nil
}
