// Package mean implements parametric mean functions that shift a GP
// prediction. Inputs are row-major rows x dim matrices, the same layout the
// pipeline uses for query points.
package mean

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadParams reports a parameter vector or index that does not fit the inputs.
var ErrBadParams = errors.New("mean: bad parameters")

// Func is a mean function evaluated at every row of x.
type Func interface {
	// NParams returns the number of parameters needed for inputs of width dim.
	NParams(dim int) int
	// Eval returns one value per row of x.
	Eval(x []float64, rows, dim int, params []float64) ([]float64, error)
}

func check(f Func, x []float64, rows, dim int, params []float64) error {
	if rows <= 0 || dim <= 0 || len(x) != rows*dim {
		return fmt.Errorf("%w: input length %d does not match %dx%d", ErrBadParams, len(x), rows, dim)
	}
	if want := f.NParams(dim); len(params) != want {
		return fmt.Errorf("%w: got %d params, want %d", ErrBadParams, len(params), want)
	}
	return nil
}

// Zero is the default mean, identically zero.
type Zero struct{}

func (Zero) NParams(int) int { return 0 }

func (z Zero) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if err := check(z, x, rows, dim, params); err != nil {
		return nil, err
	}
	return make([]float64, rows), nil
}

// Constant is a fixed value with no parameters.
type Constant struct {
	Value float64
}

func (Constant) NParams(int) int { return 0 }

func (c Constant) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if err := check(c, x, rows, dim, params); err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = c.Value
	}
	return out, nil
}

// Linear returns input column Index unchanged. Combine with Coefficient
// through Product to fit a slope.
type Linear struct {
	Index int
}

func (Linear) NParams(int) int { return 0 }

func (l Linear) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if err := check(l, x, rows, dim, params); err != nil {
		return nil, err
	}
	if l.Index < 0 || l.Index >= dim {
		return nil, fmt.Errorf("%w: index %d outside [0,%d)", ErrBadParams, l.Index, dim)
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = x[i*dim+l.Index]
	}
	return out, nil
}

// Coefficient is a single fitted constant.
type Coefficient struct{}

func (Coefficient) NParams(int) int { return 1 }

func (c Coefficient) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if err := check(c, x, rows, dim, params); err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = params[0]
	}
	return out, nil
}

// Polynomial fits every input dimension to a polynomial of the given degree
// with a shared intercept. params[0] is the intercept; params[1+p] multiplies
// x[:, p%dim] raised to p/dim+1.
type Polynomial struct {
	Degree int
}

func (p Polynomial) NParams(dim int) int { return dim*p.Degree + 1 }

func (p Polynomial) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if p.Degree < 0 {
		return nil, fmt.Errorf("%w: negative degree %d", ErrBadParams, p.Degree)
	}
	if err := check(p, x, rows, dim, params); err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := x[i*dim : (i+1)*dim]
		s := params[0]
		for k, c := range params[1:] {
			s += c * math.Pow(row[k%dim], float64(k/dim+1))
		}
		out[i] = s
	}
	return out, nil
}

// Sum adds two mean functions. Parameters are split at F1.NParams.
type Sum struct {
	F1, F2 Func
}

func (s Sum) NParams(dim int) int { return s.F1.NParams(dim) + s.F2.NParams(dim) }

func (s Sum) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	a, b, err := evalPair(s.F1, s.F2, x, rows, dim, params)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] += b[i]
	}
	return a, nil
}

// Product multiplies two mean functions. Parameters are split at F1.NParams.
type Product struct {
	F1, F2 Func
}

func (p Product) NParams(dim int) int { return p.F1.NParams(dim) + p.F2.NParams(dim) }

func (p Product) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	a, b, err := evalPair(p.F1, p.F2, x, rows, dim, params)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] *= b[i]
	}
	return a, nil
}

// Composite applies F1 to the output of F2, read as a rows x 1 input.
// Parameters are split at F1.NParams(1).
type Composite struct {
	F1, F2 Func
}

func (c Composite) NParams(dim int) int { return c.F1.NParams(1) + c.F2.NParams(dim) }

func (c Composite) Eval(x []float64, rows, dim int, params []float64) ([]float64, error) {
	if c.F1 == nil || c.F2 == nil {
		return nil, fmt.Errorf("%w: nil operand", ErrBadParams)
	}
	if err := check(c, x, rows, dim, params); err != nil {
		return nil, err
	}
	switchAt := c.F1.NParams(1)
	inner, err := c.F2.Eval(x, rows, dim, params[switchAt:])
	if err != nil {
		return nil, err
	}
	return c.F1.Eval(inner, rows, 1, params[:switchAt])
}

// Validate checks the structure of f against inputs of width dim without
// evaluating it: column indices in range, degrees non-negative, no nil
// operands.
func Validate(f Func, dim int) error {
	switch f := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil mean function", ErrBadParams)
	case Linear:
		if f.Index < 0 || f.Index >= dim {
			return fmt.Errorf("%w: index %d outside [0,%d)", ErrBadParams, f.Index, dim)
		}
	case Polynomial:
		if f.Degree < 0 {
			return fmt.Errorf("%w: negative degree %d", ErrBadParams, f.Degree)
		}
	case Sum:
		return validatePair(f.F1, dim, f.F2, dim)
	case Product:
		return validatePair(f.F1, dim, f.F2, dim)
	case Composite:
		return validatePair(f.F1, 1, f.F2, dim)
	}
	return nil
}

func validatePair(f1 Func, dim1 int, f2 Func, dim2 int) error {
	if err := Validate(f1, dim1); err != nil {
		return err
	}
	return Validate(f2, dim2)
}

func evalPair(f1, f2 Func, x []float64, rows, dim int, params []float64) ([]float64, []float64, error) {
	if f1 == nil || f2 == nil {
		return nil, nil, fmt.Errorf("%w: nil operand", ErrBadParams)
	}
	switchAt := f1.NParams(dim)
	if len(params) != switchAt+f2.NParams(dim) {
		return nil, nil, fmt.Errorf("%w: got %d params, want %d", ErrBadParams, len(params), switchAt+f2.NParams(dim))
	}
	a, err := f1.Eval(x, rows, dim, params[:switchAt])
	if err != nil {
		return nil, nil, err
	}
	b, err := f2.Eval(x, rows, dim, params[switchAt:])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
