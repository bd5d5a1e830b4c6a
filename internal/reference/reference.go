// Package reference is the batch (non-streaming) GP prediction used as the
// golden oracle for the streaming pipeline. Every intermediate matrix is
// materialised with gonum.
package reference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qrv0/gpstream/internal/kernel"
)

// Model computes the three pipeline stages on whole matrices.
type Model struct{}

// Distances returns the nx x nxstar matrix of weighted squared distances
// between rows of x and rows of xstar.
func (Model) Distances(x, xstar, lengthScales []float64, nx, nxstar, dim int) *mat.Dense {
	w := kernel.LengthWeights(lengthScales)
	r := mat.NewDense(nx, nxstar, nil)
	for i := 0; i < nx; i++ {
		xi := x[i*dim : (i+1)*dim]
		for j := 0; j < nxstar; j++ {
			r.Set(i, j, kernel.WeightedSqDist(xi, xstar[j*dim:(j+1)*dim], w))
		}
	}
	return r
}

// SquaredExponential maps every distance r to exp(-0.5 r) exp(sigma).
func (Model) SquaredExponential(r *mat.Dense, sigma float64) *mat.Dense {
	scale := kernel.Scale(sigma)
	var k mat.Dense
	k.Apply(func(_, _ int, v float64) float64 {
		return kernel.SquaredExponential(v, scale)
	}, r)
	return &k
}

// Reduce returns kᵀ w, one value per column of k.
func (Model) Reduce(k *mat.Dense, weights []float64) []float64 {
	_, n := k.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(k.T(), mat.NewVecDense(len(weights), weights))
	return out.RawVector().Data
}

// Predict runs the three stages back to back.
func (m Model) Predict(x, xstar, lengthScales []float64, sigma float64, weights []float64, nx, nxstar, dim int) ([]float64, error) {
	switch {
	case nx <= 0 || nxstar <= 0 || dim <= 0:
		return nil, fmt.Errorf("reference: non-positive shape nx=%d nxstar=%d dim=%d", nx, nxstar, dim)
	case len(x) != nx*dim || len(xstar) != nxstar*dim:
		return nil, fmt.Errorf("reference: input lengths %d,%d do not match shape", len(x), len(xstar))
	case len(lengthScales) != dim:
		return nil, fmt.Errorf("reference: %d length scales for dim %d", len(lengthScales), dim)
	case len(weights) != nx:
		return nil, fmt.Errorf("reference: %d weights for nx %d", len(weights), nx)
	}
	r := m.Distances(x, xstar, lengthScales, nx, nxstar, dim)
	k := m.SquaredExponential(r, sigma)
	return m.Reduce(k, weights), nil
}
