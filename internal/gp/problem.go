package gp

import (
	"fmt"

	"github.com/qrv0/gpstream/internal/mean"
)

// Problem is one prediction request. All slices are row-major and are only
// read during a run.
type Problem struct {
	X            []float64 // nx x dim training inputs
	Xstar        []float64 // nxstar x dim query inputs
	LengthScales []float64 // dim
	Sigma        float64
	Weights      []float64 // nx, the precomputed InvQt vector

	NX, NXStar, Dim int

	// Mean is optional; when set, Mean(Xstar) is added to the prediction.
	Mean       mean.Func
	MeanParams []float64
}

// NewProblem bundles flattened inputs and their declared shape.
func NewProblem(x, xstar, lengthScales []float64, sigma float64, weights []float64, nx, nxstar, dim int) Problem {
	return Problem{
		X:            x,
		Xstar:        xstar,
		LengthScales: lengthScales,
		Sigma:        sigma,
		Weights:      weights,
		NX:           nx,
		NXStar:       nxstar,
		Dim:          dim,
	}
}

// Elements is the length of the distance and kernel streams.
func (p Problem) Elements() int { return p.NX * p.NXStar }

// Validate checks declared dimensions against the supplied slices.
func (p Problem) Validate() error {
	const stage, op = "validate", "shape"
	switch {
	case p.NX <= 0 || p.NXStar <= 0 || p.Dim <= 0:
		return stageErr(stage, op, ErrDimensionMismatch, "nx=%d nxstar=%d dim=%d must be positive", p.NX, p.NXStar, p.Dim)
	case len(p.LengthScales) != p.Dim:
		return stageErr(stage, op, ErrDimensionMismatch, "%d length scales for dim %d", len(p.LengthScales), p.Dim)
	case len(p.X) != p.NX*p.Dim:
		return stageErr(stage, op, ErrDimensionMismatch, "training inputs have %d values, want %d", len(p.X), p.NX*p.Dim)
	case len(p.Xstar) != p.NXStar*p.Dim:
		return stageErr(stage, op, ErrDimensionMismatch, "query inputs have %d values, want %d", len(p.Xstar), p.NXStar*p.Dim)
	case len(p.Weights) != p.NX:
		return stageErr(stage, op, ErrDimensionMismatch, "%d weights for nx %d", len(p.Weights), p.NX)
	}
	if p.Mean != nil {
		if err := mean.Validate(p.Mean, p.Dim); err != nil {
			return stageErr("mean", "params", fmt.Errorf("%w: %w", ErrDimensionMismatch, err), "mean function does not fit dim %d", p.Dim)
		}
		if want := p.Mean.NParams(p.Dim); len(p.MeanParams) != want {
			return stageErr("mean", "params", ErrDimensionMismatch, "%d mean params, want %d", len(p.MeanParams), want)
		}
	}
	return nil
}

// addMean shifts y by the mean function evaluated at the query points.
func (p Problem) addMean(y []float64) error {
	if p.Mean == nil {
		return nil
	}
	m, err := p.Mean.Eval(p.Xstar, p.NXStar, p.Dim, p.MeanParams)
	if err != nil {
		return stageErr("mean", "eval", err, "mean function failed")
	}
	for i := range y {
		y[i] += m[i]
	}
	return nil
}
