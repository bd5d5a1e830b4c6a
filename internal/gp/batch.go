package gp

import (
	"github.com/qrv0/gpstream/internal/reference"
)

// PredictGP is the batch entry point. It materialises the distance and
// kernel matrices and returns the nxstar predictions synchronously.
func PredictGP(x, xstar, lengthScales []float64, sigma float64, weights []float64, nx, nxstar, dim int) ([]float64, error) {
	return PredictBatch(NewProblem(x, xstar, lengthScales, sigma, weights, nx, nxstar, dim))
}

// PredictBatch runs p through the reference model, including its mean function.
func PredictBatch(p Problem) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	y, err := reference.Model{}.Predict(p.X, p.Xstar, p.LengthScales, p.Sigma, p.Weights, p.NX, p.NXStar, p.Dim)
	if err != nil {
		return nil, stageErr("batch", "predict", ErrDimensionMismatch, "%v", err)
	}
	if err := p.addMean(y); err != nil {
		return nil, err
	}
	return y, nil
}
