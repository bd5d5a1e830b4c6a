package config

import (
	"fmt"
	"os"

	"github.com/qrv0/gpstream/internal/gp"
	"github.com/qrv0/gpstream/internal/mean"
)

// ProblemSpec is the human-written form of a prediction problem, with one
// YAML sequence per input row.
//
//	x: [[1, 2, 3], [2, 4, 1]]
//	xstar: [[1, 3, 2]]
//	length_scales: [0, 0, 0]
//	sigma: 0
//	weights: [1.94, 2.93]
//	mean: {kind: coefficient, params: [0.5]}
type ProblemSpec struct {
	X            [][]float64 `yaml:"x"`
	Xstar        [][]float64 `yaml:"xstar"`
	LengthScales []float64   `yaml:"length_scales"`
	Sigma        float64     `yaml:"sigma"`
	Weights      []float64   `yaml:"weights"`
	Mean         *mean.Spec  `yaml:"mean,omitempty"`
}

// LoadProblem reads a ProblemSpec from path.
func LoadProblem(path string) (ProblemSpec, error) {
	var s ProblemSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := decodeStrict(data, &s); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return s, nil
}

// ToProblem flattens the rows and validates the resulting shape. Rows of
// unequal width are reported as gp.ErrDimensionMismatch.
func (s ProblemSpec) ToProblem() (gp.Problem, error) {
	dim := len(s.LengthScales)
	x, err := flatten("x", s.X, dim)
	if err != nil {
		return gp.Problem{}, err
	}
	xstar, err := flatten("xstar", s.Xstar, dim)
	if err != nil {
		return gp.Problem{}, err
	}
	p := gp.NewProblem(x, xstar, s.LengthScales, s.Sigma, s.Weights, len(s.X), len(s.Xstar), dim)
	if s.Mean != nil {
		f, err := s.Mean.Build()
		if err != nil {
			return gp.Problem{}, err
		}
		p.Mean, p.MeanParams = f, s.Mean.Params
	}
	if err := p.Validate(); err != nil {
		return gp.Problem{}, err
	}
	return p, nil
}

func flatten(name string, rows [][]float64, dim int) ([]float64, error) {
	out := make([]float64, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("config: %s row %d has %d values for %d length scales: %w", name, i, len(r), dim, gp.ErrDimensionMismatch)
		}
		out = append(out, r...)
	}
	return out, nil
}
